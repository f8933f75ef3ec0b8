package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flashstore-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Validate(ctx context.Context, code string, subtotal float64) (*Validation, *Coupon, error)
	RecordUsage(ctx context.Context, code string)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// Validate runs the coupon rule table against the server-computed subtotal.
// An invalid coupon is not an error: the Validation carries the reason so
// the preview endpoint can show it. Only lookup failures return an error.
func (s *service) Validate(ctx context.Context, code string, subtotal float64) (*Validation, *Coupon, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, ErrCouponNotFound) {
		return &Validation{Valid: false, Message: "Invalid coupon code"}, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if !c.Active {
		return &Validation{Valid: false, Message: "This coupon is no longer active"}, nil, nil
	}

	if c.ExpiresAt != nil && c.ExpiresAt.Before(s.now()) {
		return &Validation{Valid: false, Message: "This coupon has expired"}, nil, nil
	}

	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return &Validation{Valid: false, Message: "This coupon has reached its usage limit"}, nil, nil
	}

	if c.MinOrderAmount != nil && subtotal < *c.MinOrderAmount {
		return &Validation{
			Valid:   false,
			Message: fmt.Sprintf("Minimum order amount of %.2f required for this coupon", *c.MinOrderAmount),
		}, nil, nil
	}

	return &Validation{
		Valid:        true,
		Message:      "Coupon applied",
		DiscountType: c.DiscountType,
		Value:        c.Value,
	}, c, nil
}

// RecordUsage increments used_count after the order is durable. It is a
// plain read-then-write: two orders redeeming near max_uses can both pass
// Validate and both count, which is accepted over-redemption. Failures are
// logged and swallowed.
func (s *service) RecordUsage(ctx context.Context, code string) {
	log := logger.FromCtx(ctx).With(zap.String("coupon_code", code))

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		log.Warn("coupon usage increment: lookup failed", zap.Error(err))
		return
	}

	if err := s.repo.SetUsedCount(ctx, c.Code, c.UsedCount+1); err != nil {
		log.Warn("coupon usage increment: write failed", zap.Error(err))
	}
}
