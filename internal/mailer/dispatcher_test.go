package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []Email
	fails int
}

func (r *recordingSender) Send(ctx context.Context, m Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails > 0 {
		r.fails--
		return errors.New("smtp down")
	}
	r.sent = append(r.sent, m)
	return nil
}

func TestDispatcher_DeliversQueuedMail(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	d.Enqueue(Email{To: "buyer@example.com", Subject: "Order confirmation", OrderID: "ord-1"})
	d.Enqueue(Email{To: "buyer@example.com", Subject: "Payment received", OrderID: "ord-1"})
	d.Close()

	assert.Len(t, sender.sent, 2)
	assert.Equal(t, "Order confirmation", sender.sent[0].Subject)
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	sender := &recordingSender{fails: 2}
	d := NewDispatcher(sender)

	d.Enqueue(Email{To: "buyer@example.com", Subject: "Order confirmation", OrderID: "ord-1"})
	d.Close()

	assert.Len(t, sender.sent, 1)
}

func TestDispatcher_ExhaustedRetriesAreSwallowed(t *testing.T) {
	sender := &recordingSender{fails: 10}
	d := NewDispatcher(sender)

	// Must not panic or block; the failure is logged, not surfaced.
	d.Enqueue(Email{To: "buyer@example.com", Subject: "Order confirmation", OrderID: "ord-1"})
	d.Close()

	assert.Empty(t, sender.sent)
}
