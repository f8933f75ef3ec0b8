package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"flashstore-be/internal/logger"
	"flashstore-be/internal/mailer"
	"flashstore-be/internal/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Orders below this total earn no loyalty points; above it, one point per
// 100 currency units of the order total.
const loyaltyMinTotal = 100.0

type OrderStore interface {
	GetByID(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentRef string) (bool, error)
}

type LoyaltyStore interface {
	GetBalance(ctx context.Context, userID string) (int, error)
	SetBalance(ctx context.Context, userID string, points int) error
}

type Notifier interface {
	Insert(ctx context.Context, userID, title, body string) error
}

type MailQueue interface {
	Enqueue(m mailer.Email)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

type Result struct {
	AlreadyProcessed bool   `json:"already_processed"`
	Message          string `json:"message"`
}

// Processor transitions orders from pending to paid. It must be safe to
// invoke any number of times for the same (order, payment) pair: gateways
// retry webhooks and clients double-submit verification calls.
type Processor struct {
	orders   OrderStore
	loyalty  LoyaltyStore
	notifier Notifier
	mail     MailQueue
	events   EventPublisher
}

func NewProcessor(
	orders OrderStore,
	loyalty LoyaltyStore,
	notifier Notifier,
	mail MailQueue,
	events EventPublisher,
) *Processor {
	return &Processor{
		orders:   orders,
		loyalty:  loyalty,
		notifier: notifier,
		mail:     mail,
		events:   events,
	}
}

// ConfirmPayment applies a verified payment to an order. Only the
// authoritative status write can fail the operation; everything after it is
// best-effort fan-out that must never make a paid order look unpaid.
func (p *Processor) ConfirmPayment(ctx context.Context, orderID uuid.UUID, paymentID string) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID.String()),
		zap.String("payment_id", paymentID),
	)

	o, err := p.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, fmt.Errorf("payment confirmation for unknown order %s", orderID)
		}
		return nil, err
	}

	// Idempotency check: a re-delivered confirmation is a success that runs
	// no side effects.
	if o.Status == order.StatusPaid {
		log.Info("payment already processed")
		return &Result{AlreadyProcessed: true, Message: "Payment already processed"}, nil
	}

	updated, err := p.orders.MarkPaid(ctx, orderID, paymentID)
	if err != nil {
		log.Error("failed to mark order paid", zap.Error(err))
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !updated {
		// Lost the conditional write to a concurrent confirmation; that
		// caller owns the side effects.
		log.Info("payment processed concurrently by another caller")
		return &Result{AlreadyProcessed: true, Message: "Payment already processed"}, nil
	}

	o.Status = order.StatusPaid
	o.PaymentReference = paymentID

	p.awardLoyaltyPoints(ctx, o, log)
	p.notifyBuyer(ctx, o, log)
	p.sendReceipt(o)

	p.events.Publish(ctx, "order.paid", map[string]any{
		"order_id":     o.ID.String(),
		"order_number": o.OrderNumber,
		"payment_id":   paymentID,
		"total":        o.Total,
	})

	log.Info("payment confirmed")
	return &Result{Message: "Payment confirmed"}, nil
}

// awardLoyaltyPoints is advisory: a plain read-then-write, tolerant of
// concurrent awards, and its failure never propagates.
func (p *Processor) awardLoyaltyPoints(ctx context.Context, o *order.Order, log *zap.Logger) {
	if o.UserID == nil || o.Total < loyaltyMinTotal {
		return
	}

	points := int(math.Floor(o.Total / 100))
	balance, err := p.loyalty.GetBalance(ctx, *o.UserID)
	if err != nil {
		log.Warn("loyalty balance read failed", zap.Error(err))
		return
	}

	if err := p.loyalty.SetBalance(ctx, *o.UserID, balance+points); err != nil {
		log.Warn("loyalty balance write failed",
			zap.Int("points", points),
			zap.Error(err),
		)
		return
	}

	log.Debug("loyalty points awarded", zap.Int("points", points))
}

func (p *Processor) notifyBuyer(ctx context.Context, o *order.Order, log *zap.Logger) {
	if o.UserID == nil {
		return
	}

	body := fmt.Sprintf("Payment received for order %s.", o.OrderNumber)
	if err := p.notifier.Insert(ctx, *o.UserID, "Payment received", body); err != nil {
		log.Warn("payment notification insert failed", zap.Error(err))
	}
}

func (p *Processor) sendReceipt(o *order.Order) {
	if o.Email == "" {
		return
	}

	p.mail.Enqueue(mailer.Email{
		To:      o.Email,
		Subject: fmt.Sprintf("Payment received for %s", o.OrderNumber),
		Body: fmt.Sprintf(
			"We received your payment of %.2f for order %s.\nYour order is now being prepared.",
			o.Total, o.OrderNumber,
		),
		OrderID: o.ID.String(),
	})
}
