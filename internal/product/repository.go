package product

import (
	"context"
	"database/sql"
	"fmt"

	"flashstore-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetPricesByIDs(ctx context.Context, ids []string) (map[string]float64, error)
	IncrementSalesCount(ctx context.Context, productID string, qty int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetPricesByIDs returns the current stored price for each requested product.
// Missing ids are simply absent from the result map; callers decide whether
// that is an error.
func (r *repository) GetPricesByIDs(ctx context.Context, ids []string) (map[string]float64, error) {
	query := `
		SELECT id, price
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query product prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]float64, len(ids))
	for rows.Next() {
		var id string
		var price float64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		prices[id] = price
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return prices, nil
}

// IncrementSalesCount bumps the analytical sales counter. Single-statement
// increment, never a read-modify-write.
func (r *repository) IncrementSalesCount(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET sales_count = sales_count + $1
		WHERE id = $2
	`, qty, productID)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		logger.FromCtx(ctx).Warn("sales count bump hit unknown product",
			zap.String("product_id", productID),
		)
	}
	return nil
}
