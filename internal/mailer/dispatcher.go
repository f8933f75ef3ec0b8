package mailer

import (
	"context"
	"sync"
	"time"

	"flashstore-be/internal/logger"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	queueSize   = 256
	sendTimeout = 30 * time.Second
)

// Dispatcher decouples email delivery from the request path. Enqueue never
// blocks the caller; a worker goroutine drains the queue and retries each
// send with exponential backoff. Exhausted sends are logged with the order
// id and recipient so operators can follow up manually.
type Dispatcher struct {
	sender Sender
	queue  chan Email
	wg     sync.WaitGroup
	once   sync.Once
}

func NewDispatcher(sender Sender) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan Email, queueSize),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) Enqueue(m Email) {
	select {
	case d.queue <- m:
	default:
		logger.L().Error("mail queue full, dropping email",
			zap.String("order_id", m.OrderID),
			zap.String("recipient", m.To),
		)
	}
}

// Close stops accepting mail and drains what is already queued.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for m := range d.queue {
		d.deliver(m)
	}
}

func (d *Dispatcher) deliver(m Email) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(d.sender.Send(ctx, m))
	})
	if err != nil {
		logger.L().Error("email delivery failed",
			zap.String("order_id", m.OrderID),
			zap.String("recipient", m.To),
			zap.String("subject", m.Subject),
			zap.Error(err),
		)
	}
}
