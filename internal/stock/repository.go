package stock

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository interface {
	GetQuantities(ctx context.Context, keys []Key) (map[Key]int, error)
	DecrementIfAvailable(ctx context.Context, key Key, qty int) (bool, error)
	Increment(ctx context.Context, key Key, qty int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetQuantities bulk-reads stock rows for the given keys. Keys with no row
// are absent from the result and read as zero stock by the guard.
func (r *repository) GetQuantities(ctx context.Context, keys []Key) (map[Key]int, error) {
	out := make(map[Key]int, len(keys))

	query := `
		SELECT quantity
		FROM stock
		WHERE product_id = $1 AND size = $2 AND color = $3
	`

	for _, k := range keys {
		var qty int
		err := r.db.QueryRowContext(ctx, query, k.ProductID, k.Size, k.Color).Scan(&qty)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read stock for %s: %w", k.ProductID, err)
		}
		out[k] = qty
	}

	return out, nil
}

// DecrementIfAvailable is the single indivisible read-check-write against a
// stock row. The quantity guard lives inside the statement, so two
// concurrent callers can never both take the last unit.
func (r *repository) DecrementIfAvailable(ctx context.Context, key Key, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE stock
		SET quantity = quantity - $4, updated_at = NOW()
		WHERE product_id = $1 AND size = $2 AND color = $3
		  AND quantity >= $4
	`, key.ProductID, key.Size, key.Color, qty)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Increment restocks a row. Used by admin restock flows, kept symmetric with
// the decrement so no caller ever overwrites the counter with a stale read.
func (r *repository) Increment(ctx context.Context, key Key, qty int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE stock
		SET quantity = quantity + $4, updated_at = NOW()
		WHERE product_id = $1 AND size = $2 AND color = $3
	`, key.ProductID, key.Size, key.Color, qty)
	return err
}
