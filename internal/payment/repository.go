package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// Webhook ledger dispositions.
const (
	WebhookStatusReceived  = "received"
	WebhookStatusProcessed = "processed"
	WebhookStatusFailed    = "failed"
)

// Repository is the durable webhook ledger. Every delivery is recorded with
// its provider event id; on a redelivery the caller gets the stored row's
// disposition and decides whether to re-dispatch. Deliveries are
// at-least-once, so a failed row must stay eligible for another attempt.
type Repository interface {
	SaveWebhook(
		ctx context.Context,
		provider string,
		eventID string,
		eventType string,
		externalID string,
		payload json.RawMessage,
		signatureValid bool,
	) (webhookID int64, status string, isDuplicate bool, err error)

	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveWebhook(
	ctx context.Context,
	provider string,
	eventID string,
	eventType string,
	externalID string,
	payload json.RawMessage,
	signatureValid bool,
) (int64, string, bool, error) {

	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		external_id,
		signature_valid,
		payload
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (provider, event_id)
	DO NOTHING
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		q,
		provider,
		eventID,
		eventType,
		externalID,
		signatureValid,
		payload,
	).Scan(&id)

	if err == nil {
		return id, WebhookStatusReceived, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, "", false, err
	}

	// Redelivery: the row already exists, surface its current disposition.
	var status string
	err = r.db.QueryRowContext(ctx, `
	SELECT id, status
	FROM payment_webhooks
	WHERE provider = $1 AND event_id = $2;
	`, provider, eventID).Scan(&id, &status)
	if err != nil {
		return 0, "", false, err
	}

	return id, status, true, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET status = 'processed', processed_at = NOW()
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET status = 'failed', failure_reason = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason)
	return err
}
