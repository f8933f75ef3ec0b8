package events

import (
	"context"
	"encoding/json"
	"time"

	"flashstore-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Publisher fans order lifecycle events out to Kafka. Publishing is
// fire-and-forget: a broker outage is logged and never blocks or fails the
// checkout or payment paths.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

type envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publish serializes and ships the event on a background goroutine. The
// caller's context is only used for its request id; delivery gets its own
// timeout so an abandoned request cannot cancel the send mid-flight.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) {
	log := logger.FromCtx(ctx).With(zap.String("event_type", eventType))

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal event payload", zap.Error(err))
		return
	}

	body, err := json.Marshal(envelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	})
	if err != nil {
		log.Error("failed to marshal event envelope", zap.Error(err))
		return
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		err := p.writer.WriteMessages(sendCtx, kafka.Message{
			Key:   []byte(eventType),
			Value: body,
		})
		if err != nil {
			log.Warn("failed to publish event", zap.Error(err))
		}
	}()
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
