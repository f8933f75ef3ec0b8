package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flashstore-be/internal/logger"
	"flashstore-be/internal/mailer"
	"flashstore-be/internal/pricing"
	"flashstore-be/internal/stock"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rate limit policy for known buyers: at most maxRecentOrders orders in the
// trailing rateLimitWindow. Guests are covered by the HTTP-level limiter only.
const (
	rateLimitWindow = 10 * time.Minute
	maxRecentOrders = 3
)

type Quoter interface {
	Quote(ctx context.Context, items []pricing.LineItem, couponCode string) (*pricing.Quote, error)
}

type StockGuard interface {
	PreCheck(ctx context.Context, lines []stock.Line) error
	Reserve(ctx context.Context, lines []stock.Line) error
}

type CouponUsage interface {
	RecordUsage(ctx context.Context, code string)
}

type Notifier interface {
	Insert(ctx context.Context, userID, title, body string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

type MailQueue interface {
	Enqueue(m mailer.Email)
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
}

type service struct {
	repo     Repository
	verifier Quoter
	guard    StockGuard
	coupons  CouponUsage
	notifier Notifier
	mail     MailQueue
	events   EventPublisher
	now      func() time.Time
}

func NewService(
	repo Repository,
	verifier Quoter,
	guard StockGuard,
	coupons CouponUsage,
	notifier Notifier,
	mail MailQueue,
	events EventPublisher,
) Service {
	return &service{
		repo:     repo,
		verifier: verifier,
		guard:    guard,
		coupons:  coupons,
		notifier: notifier,
		mail:     mail,
		events:   events,
		now:      time.Now,
	}
}

// CreateOrder is the single checkout entry point. Steps before the order
// insert abort with no side effects; once the order row exists, stock and
// line failures compensate by cancelling the order rather than rolling back.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.Int("item_count", len(input.Items)),
	)

	if len(input.Items) == 0 {
		return nil, errors.New("order has no items")
	}
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, errors.New("quantity must be greater than zero")
		}
	}

	// 1. Rate limit for known buyers.
	if input.UserID != nil && *input.UserID != "" {
		count, err := s.repo.CountRecentOrders(ctx, *input.UserID, s.now().Add(-rateLimitWindow))
		if err != nil {
			return nil, &PersistenceError{Op: "count recent orders", Err: err}
		}
		if count >= maxRecentOrders {
			log.Warn("order rate limit hit",
				zap.String("user_id", *input.UserID),
				zap.Int("recent_orders", count),
			)
			return nil, &RateLimitError{Count: count, Max: maxRecentOrders}
		}
	}

	// 2. Re-derive all money fields server-side.
	items := make([]pricing.LineItem, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, pricing.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}

	quote, err := s.verifier.Quote(ctx, items, input.CouponCode)
	if err != nil {
		var notFound *pricing.ProductNotFoundError
		var rejected *pricing.CouponRejectedError
		if errors.As(err, &notFound) || errors.As(err, &rejected) {
			log.Warn("price verification failed", zap.Error(err))
			return nil, &PriceVerificationError{Reason: err}
		}
		return nil, err
	}

	// 3. Tolerance check against the client-declared total.
	if !pricing.WithinTolerance(quote.Total, input.Total) {
		log.Warn("price mismatch",
			zap.Float64("server_total", quote.Total),
			zap.Float64("client_total", input.Total),
		)
		return nil, &PriceMismatchError{Expected: quote.Total, Declared: input.Total}
	}

	// 4. Advisory stock pre-check. Fails fast before anything is written.
	stockLines := make([]stock.Line, 0, len(input.Items))
	for _, it := range input.Items {
		stockLines = append(stockLines, stock.Line{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
		})
	}
	if err := s.guard.PreCheck(ctx, stockLines); err != nil {
		return nil, err
	}

	// 5. Insert the order. Durability point: from here on failures
	// compensate instead of aborting.
	o := &Order{
		ID:               uuid.New(),
		OrderNumber:      generateOrderNumber(),
		UserID:           input.UserID,
		Status:           StatusPending,
		Subtotal:         quote.Subtotal,
		DiscountAmount:   quote.Discount,
		ShippingFee:      quote.ShippingFee,
		Total:            quote.Total,
		PaymentProvider:  input.PaymentProvider,
		PaymentReference: input.PaymentReference,
		ShippingName:     input.ShippingName,
		Phone:            input.Phone,
		AddressLine1:     input.AddressLine1,
		City:             input.City,
		State:            input.State,
		Pincode:          input.Pincode,
		Country:          input.Country,
		Email:            input.Email,
		CreatedAt:        s.now(),
	}
	if input.CouponCode != "" {
		code := input.CouponCode
		o.CouponCode = &code
	}

	log = log.With(
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.Float64("total", o.Total),
	)

	if err := s.repo.InsertOrder(ctx, o); err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return nil, &PersistenceError{Op: "insert order", Err: err}
	}

	// 6. Insert lines, unit price from the verifier's price map.
	lines := make([]Line, 0, len(input.Items))
	for _, it := range input.Items {
		lines = append(lines, Line{
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: quote.Prices[it.ProductID],
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	if err := s.repo.InsertLines(ctx, o.ID, lines); err != nil {
		log.Error("failed to insert order lines", zap.Error(err))
		s.compensate(ctx, o, log)
		return nil, &PersistenceError{Op: "insert order lines", Err: err}
	}
	o.Lines = lines

	// 7. Authoritative reservation. A race loss cancels the order and
	// surfaces the reservation error; lines stay in place for audit.
	if err := s.guard.Reserve(ctx, stockLines); err != nil {
		s.compensate(ctx, o, log)

		var resErr *stock.ReservationError
		if errors.As(err, &resErr) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "reserve stock", Err: err}
	}

	// 8. Best-effort coupon usage increment. Never fails the order.
	if o.CouponCode != nil {
		s.coupons.RecordUsage(ctx, *o.CouponCode)
	}

	// 9. Confirmation fan-out, all fire-and-forget.
	s.dispatchConfirmation(ctx, o)

	log.Info("order created")
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// compensate rolls the order to cancelled after a post-insert failure. It is
// best-effort: a failed cancel is logged loudly and the original failure
// still surfaces to the caller.
func (s *service) compensate(ctx context.Context, o *Order, log *zap.Logger) {
	if err := s.repo.Cancel(ctx, o.ID); err != nil {
		if errors.Is(err, ErrNotCancellable) {
			// The status guard fired: the order already left pending, so
			// there is nothing to undo.
			log.Warn("compensation skipped: order already left pending",
				zap.String("order_id", o.ID.String()),
			)
			return
		}
		log.Error("compensation failed: order left pending",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return
	}
	o.Status = StatusCancelled

	s.events.Publish(ctx, "order.cancelled", map[string]any{
		"order_id":     o.ID.String(),
		"order_number": o.OrderNumber,
	})
}

func (s *service) dispatchConfirmation(ctx context.Context, o *Order) {
	log := logger.FromCtx(ctx)

	if o.UserID != nil {
		body := fmt.Sprintf("Your order %s has been placed.", o.OrderNumber)
		if err := s.notifier.Insert(ctx, *o.UserID, "Order placed", body); err != nil {
			log.Warn("order notification insert failed",
				zap.String("order_id", o.ID.String()),
				zap.Error(err),
			)
		}
	}

	if o.Email != "" {
		s.mail.Enqueue(mailer.Email{
			To:      o.Email,
			Subject: fmt.Sprintf("Order confirmation %s", o.OrderNumber),
			Body: fmt.Sprintf(
				"Thanks for your order!\n\nOrder: %s\nTotal: %.2f\nWe will let you know once payment is confirmed.",
				o.OrderNumber, o.Total,
			),
			OrderID: o.ID.String(),
		})
	}

	s.events.Publish(ctx, "order.created", map[string]any{
		"order_id":     o.ID.String(),
		"order_number": o.OrderNumber,
		"total":        o.Total,
	})
}
