package notification

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository interface {
	Insert(ctx context.Context, userID, title, body string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, userID, title, body string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, body)
		VALUES ($1, $2, $3)
	`, userID, title, body)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}
