package loyalty

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository interface {
	GetBalance(ctx context.Context, userID string) (int, error)
	SetBalance(ctx context.Context, userID string, points int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBalance(ctx context.Context, userID string) (int, error) {
	var points int
	err := r.db.QueryRowContext(ctx, `
		SELECT points FROM loyalty_points WHERE user_id = $1
	`, userID).Scan(&points)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read loyalty balance: %w", err)
	}
	return points, nil
}

func (r *repository) SetBalance(ctx context.Context, userID string, points int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO loyalty_points (user_id, points, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET points = $2, updated_at = NOW()
	`, userID, points)
	if err != nil {
		return fmt.Errorf("failed to write loyalty balance: %w", err)
	}
	return nil
}
