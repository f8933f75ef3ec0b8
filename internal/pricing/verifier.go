package pricing

import (
	"context"
	"fmt"
	"math"

	"flashstore-be/internal/coupon"
	"flashstore-be/internal/logger"

	"go.uber.org/zap"
)

// Policy constants. The shipping threshold and the tolerance window are part
// of the checkout contract, not configuration.
const (
	FreeShippingThreshold = 1000.0
	FlatShippingFee       = 50.0
	Epsilon               = 1.0
)

// LineItem is a client-requested cart entry. The client-sent price never
// reaches this package; only ids and quantities do.
type LineItem struct {
	ProductID string
	Name      string
	Quantity  int
	Size      string
	Color     string
}

// Quote is the server-derived truth for an order's money fields, plus the
// per-product price map the orchestrator snapshots into order lines.
type Quote struct {
	Subtotal    float64
	Discount    float64
	ShippingFee float64
	Total       float64
	CouponCode  string
	Prices      map[string]float64
}

// ProductNotFoundError means the cart referenced a product the store does
// not sell. Treated as tampering, not a transient condition.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Security check failed: product %s could not be verified", e.ProductID)
}

// CouponRejectedError means a coupon was supplied at checkout and failed the
// rule table. During checkout this is a hard failure, never a silent ignore.
type CouponRejectedError struct {
	Message string
}

func (e *CouponRejectedError) Error() string {
	return e.Message
}

type PriceSource interface {
	GetPricesByIDs(ctx context.Context, ids []string) (map[string]float64, error)
}

type CouponRules interface {
	Validate(ctx context.Context, code string, subtotal float64) (*coupon.Validation, *coupon.Coupon, error)
}

type Verifier struct {
	products PriceSource
	coupons  CouponRules
}

func NewVerifier(products PriceSource, coupons CouponRules) *Verifier {
	return &Verifier{products: products, coupons: coupons}
}

// Quote recomputes subtotal, discount, shipping and total entirely from
// server-held data. couponCode may be empty.
func (v *Verifier) Quote(ctx context.Context, items []LineItem, couponCode string) (*Quote, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	prices, err := v.products.GetPricesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var subtotal float64
	for _, it := range items {
		price, ok := prices[it.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: it.ProductID}
		}
		subtotal += price * float64(it.Quantity)
	}

	var discount float64
	if couponCode != "" {
		validation, c, err := v.coupons.Validate(ctx, couponCode, subtotal)
		if err != nil {
			return nil, err
		}
		if !validation.Valid {
			return nil, &CouponRejectedError{Message: validation.Message}
		}
		discount = c.DiscountFor(subtotal)
	}

	shippingFee := FlatShippingFee
	if subtotal >= FreeShippingThreshold {
		shippingFee = 0
	}

	// Discount is not clamped to the subtotal; the total is floored instead.
	total := math.Max(0, subtotal-discount) + shippingFee

	logger.FromCtx(ctx).Debug("quote computed",
		zap.Float64("subtotal", subtotal),
		zap.Float64("discount", discount),
		zap.Float64("shipping_fee", shippingFee),
		zap.Float64("total", total),
		zap.String("coupon_code", couponCode),
	)

	return &Quote{
		Subtotal:    subtotal,
		Discount:    discount,
		ShippingFee: shippingFee,
		Total:       total,
		CouponCode:  couponCode,
		Prices:      prices,
	}, nil
}

// WithinTolerance reports whether the client-declared total agrees with the
// server-computed one. The window exists only to absorb floating-point
// drift between client and server arithmetic.
func WithinTolerance(serverTotal, clientTotal float64) bool {
	return math.Abs(serverTotal-clientTotal) <= Epsilon
}
