package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	InsertOrder(ctx context.Context, o *Order) error
	InsertLines(ctx context.Context, orderID uuid.UUID, lines []Line) error
	Cancel(ctx context.Context, orderID uuid.UUID) error
	CountRecentOrders(ctx context.Context, userID string, since time.Time) (int, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentRef string) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertOrder(ctx context.Context, o *Order) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, status,
			subtotal, discount_amount, shipping_fee, total,
			coupon_code, payment_provider, payment_reference,
			shipping_name, phone, address_line1, city, state, pincode, country,
			email, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		o.ID,
		o.OrderNumber,
		o.UserID,
		o.Status,
		o.Subtotal,
		o.DiscountAmount,
		o.ShippingFee,
		o.Total,
		o.CouponCode,
		o.PaymentProvider,
		o.PaymentReference,
		o.ShippingName,
		o.Phone,
		o.AddressLine1,
		o.City,
		o.State,
		o.Pincode,
		o.Country,
		o.Email,
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *repository) InsertLines(ctx context.Context, orderID uuid.UUID, lines []Line) error {
	for i, l := range lines {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, name, quantity, unit_price, size, color
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			orderID,
			l.ProductID,
			l.Name,
			l.Quantity,
			l.UnitPrice,
			l.Size,
			l.Color,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order line %d: %w", i, err)
		}
	}
	return nil
}

// Cancel is the compensation write. Guarded on the current status so a
// confirmation racing the compensation cannot be silently undone.
func (r *repository) Cancel(ctx context.Context, orderID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1
		  AND status = 'pending'
	`, orderID)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrNotCancellable)
	}
	return nil
}

func (r *repository) CountRecentOrders(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders
		WHERE user_id = $1
		  AND created_at >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent orders: %w", err)
	}
	return count, nil
}

func (r *repository) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, user_id, status,
		       subtotal, discount_amount, shipping_fee, total,
		       coupon_code, payment_provider, payment_reference,
		       shipping_name, phone, address_line1, city, state, pincode, country,
		       email, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.Subtotal,
		&o.DiscountAmount,
		&o.ShippingFee,
		&o.Total,
		&o.CouponCode,
		&o.PaymentProvider,
		&o.PaymentReference,
		&o.ShippingName,
		&o.Phone,
		&o.AddressLine1,
		&o.City,
		&o.State,
		&o.Pincode,
		&o.Country,
		&o.Email,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, quantity, unit_price, size, color
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Name, &l.Quantity, &l.UnitPrice, &l.Size, &l.Color); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}

	return &o, rows.Err()
}

// MarkPaid is the authoritative payment transition. The status guard in the
// statement makes the transition idempotent under concurrent confirmations:
// only one caller observes true and runs the side-effect fan-out.
func (r *repository) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentRef string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = 'paid', payment_reference = $2, updated_at = NOW()
		WHERE id = $1
		  AND status <> 'paid'
	`, orderID, paymentRef)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
