package coupon

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	SetUsedCount(ctx context.Context, code string, usedCount int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `
		SELECT code, discount_type, value, min_order_amount, max_uses,
		       used_count, active, expires_at, created_at
		FROM coupons
		WHERE code = $1
	`

	var c Coupon
	err := r.db.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(code))).
		Scan(
			&c.Code,
			&c.DiscountType,
			&c.Value,
			&c.MinOrderAmount,
			&c.MaxUses,
			&c.UsedCount,
			&c.Active,
			&c.ExpiresAt,
			&c.CreatedAt,
		)
	if err == sql.ErrNoRows {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

func (r *repository) SetUsedCount(ctx context.Context, code string, usedCount int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE coupons SET used_count = $1 WHERE code = $2
	`, usedCount, code)
	return err
}
