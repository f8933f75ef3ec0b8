package order

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Order is the transactional aggregate root. Monetary fields are always
// server-computed; the client-declared totals never land here.
type Order struct {
	ID               uuid.UUID `json:"id"`
	OrderNumber      string    `json:"order_number"`
	UserID           *string   `json:"user_id,omitempty"`
	Status           Status    `json:"status"`
	Subtotal         float64   `json:"subtotal"`
	DiscountAmount   float64   `json:"discount_amount"`
	ShippingFee      float64   `json:"shipping_fee"`
	Total            float64   `json:"total"`
	CouponCode       *string   `json:"coupon_code,omitempty"`
	PaymentProvider  string    `json:"payment_provider"`
	PaymentReference string    `json:"payment_reference"`
	ShippingName     string    `json:"shipping_name"`
	Phone            string    `json:"phone"`
	AddressLine1     string    `json:"address_line1"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	Pincode          string    `json:"pincode"`
	Country          string    `json:"country"`
	Email            string    `json:"email"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Lines            []Line    `json:"items"`
}

// Line snapshots the unit price at order time. Immutable after creation.
type Line struct {
	ID        int64     `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

// ItemInput is one client-requested cart entry. Price is advisory only and
// is used for nothing but the declared-total tolerance check upstream.
type ItemInput struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Price     float64 `json:"price"`
}

type CreateOrderInput struct {
	UserID           *string     `json:"user_id"`
	Subtotal         float64     `json:"subtotal"`
	Total            float64     `json:"total"`
	ShippingName     string      `json:"shipping_name"`
	Phone            string      `json:"phone"`
	AddressLine1     string      `json:"address_line1"`
	City             string      `json:"city"`
	State            string      `json:"state"`
	Pincode          string      `json:"pincode"`
	Country          string      `json:"country"`
	PaymentProvider  string      `json:"payment_provider"`
	PaymentReference string      `json:"payment_reference"`
	Items            []ItemInput `json:"items"`
	CouponCode       string      `json:"coupon_code"`
	Email            string      `json:"email"`
}
