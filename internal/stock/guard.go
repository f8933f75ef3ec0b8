package stock

import (
	"context"

	"flashstore-be/internal/logger"

	"go.uber.org/zap"
)

// SalesCounter is the analytical counter bumped after a successful
// reservation. Failures are swallowed; it is never part of correctness.
type SalesCounter interface {
	IncrementSalesCount(ctx context.Context, productID string, qty int) error
}

// Guard enforces that no order survives in a non-cancelled state unless
// every line was covered by an atomic decrement.
type Guard struct {
	repo  Repository
	sales SalesCounter
}

func NewGuard(repo Repository, sales SalesCounter) *Guard {
	return &Guard{repo: repo, sales: sales}
}

// PreCheck bulk-reads current stock and fails fast on any shortfall.
// It is advisory only: a passing pre-check does not reserve anything, and
// Reserve must still be called before the order is trusted.
func (g *Guard) PreCheck(ctx context.Context, lines []Line) error {
	keys := make([]Key, 0, len(lines))
	for _, l := range lines {
		keys = append(keys, l.key())
	}

	available, err := g.repo.GetQuantities(ctx, keys)
	if err != nil {
		return err
	}

	for _, l := range lines {
		have := available[l.key()]
		if have < l.Quantity {
			return &SoldOutError{
				Name:      l.Name,
				Size:      l.Size,
				Color:     l.Color,
				Available: have,
				Requested: l.Quantity,
			}
		}
	}

	return nil
}

// Reserve issues the authoritative per-line decrements, in line order.
// A decrement that reports insufficient stock is a race lost against a
// concurrent order, not a repeat of the pre-check; it surfaces as
// *ReservationError and the caller must compensate.
func (g *Guard) Reserve(ctx context.Context, lines []Line) error {
	log := logger.FromCtx(ctx)

	for _, l := range lines {
		ok, err := g.repo.DecrementIfAvailable(ctx, l.key(), l.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			log.Warn("stock reservation lost race",
				zap.String("product_id", l.ProductID),
				zap.String("size", l.Size),
				zap.String("color", l.Color),
				zap.Int("quantity", l.Quantity),
			)
			return &ReservationError{Name: l.Name, Size: l.Size, Color: l.Color}
		}

		if g.sales != nil {
			if err := g.sales.IncrementSalesCount(ctx, l.ProductID, l.Quantity); err != nil {
				log.Warn("sales count bump failed",
					zap.String("product_id", l.ProductID),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}
