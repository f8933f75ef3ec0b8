package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"flashstore-be/internal/config"
)

type Email struct {
	To      string
	Subject string
	Body    string
	OrderID string
}

// Sender delivers a single email. Delivery mechanics are an external
// collaborator; the SMTP implementation below is the default.
type Sender interface {
	Send(ctx context.Context, m Email) error
}

type smtpSender struct {
	addr string
	from string
}

func NewSMTPSender(cfg *config.Config) Sender {
	return &smtpSender{
		addr: cfg.SMTPHost + ":" + cfg.SMTPPort,
		from: cfg.SMTPFrom,
	}
}

func (s *smtpSender) Send(ctx context.Context, m Email) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.from, m.To, m.Subject, m.Body)

	if err := smtp.SendMail(s.addr, nil, s.from, []string{m.To}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
