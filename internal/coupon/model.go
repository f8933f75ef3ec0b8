package coupon

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	Code           string
	DiscountType   DiscountType
	Value          float64
	MinOrderAmount *float64
	MaxUses        *int
	UsedCount      int
	Active         bool
	ExpiresAt      *time.Time
	CreatedAt      time.Time
}

// DiscountFor computes the discount this coupon grants against a subtotal.
// The amount is deliberately not clamped to the subtotal; the final order
// total is floored at zero instead.
func (c *Coupon) DiscountFor(subtotal float64) float64 {
	if c.DiscountType == DiscountPercentage {
		return subtotal * c.Value / 100
	}
	return c.Value
}

// Validation is the outcome of the rule table, shaped for the preview
// endpoint as well as checkout.
type Validation struct {
	Valid        bool         `json:"valid"`
	Message      string       `json:"message"`
	DiscountType DiscountType `json:"discount_type,omitempty"`
	Value        float64      `json:"value,omitempty"`
}
