package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"flashstore-be/internal/config"
	"flashstore-be/internal/logger"
)

var ErrInvalidSignature = errors.New("invalid payment signature")

type razorpayGateway struct {
	keySecret     string
	webhookSecret string
}

func NewRazorpayGateway(cfg *config.Config) Gateway {
	if cfg.RazorpaySecret == "" || cfg.RazorpayWebhookSecret == "" {
		logger.L().Warn("Razorpay secrets are not fully configured")
	}

	return &razorpayGateway{
		keySecret:     cfg.RazorpaySecret,
		webhookSecret: cfg.RazorpayWebhookSecret,
	}
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 digest Razorpay sends in
// X-Razorpay-Signature over the raw request body.
func (g *razorpayGateway) VerifyWebhookSignature(body []byte, signature string) error {
	return verifyHMAC([]byte(g.webhookSecret), body, signature)
}

// VerifyPaymentSignature checks the redirect-flow signature, computed over
// "<orderID>|<paymentID>" with the API key secret.
func (g *razorpayGateway) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	payload := orderID + "|" + paymentID
	return verifyHMAC([]byte(g.keySecret), []byte(payload), signature)
}

func verifyHMAC(secret, payload []byte, signature string) error {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	// hmac.Equal is constant-time; never compare signatures with ==.
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
