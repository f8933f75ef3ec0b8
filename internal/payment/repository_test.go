package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SaveWebhook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	payload := json.RawMessage(`{"event":"payment.captured"}`)

	t.Run("First delivery", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO payment_webhooks").
			WithArgs("razorpay", "evt_1", "payment.captured", "ord-1", true, payload).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

		id, status, dup, err := repo.SaveWebhook(context.Background(), "razorpay", "evt_1", "payment.captured", "ord-1", payload, true)
		assert.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, int64(7), id)
		assert.Equal(t, WebhookStatusReceived, status)
	})

	t.Run("Duplicate surfaces the stored disposition", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO payment_webhooks").
			WithArgs("razorpay", "evt_1", "payment.captured", "ord-1", true, payload).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT id, status FROM payment_webhooks").
			WithArgs("razorpay", "evt_1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(int64(7), "failed"))

		id, status, dup, err := repo.SaveWebhook(context.Background(), "razorpay", "evt_1", "payment.captured", "ord-1", payload, true)
		assert.NoError(t, err)
		assert.True(t, dup)
		assert.Equal(t, int64(7), id)
		assert.Equal(t, WebhookStatusFailed, status)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO payment_webhooks").
			WillReturnError(errors.New("db error"))

		_, _, _, err := repo.SaveWebhook(context.Background(), "razorpay", "evt_2", "payment.captured", "ord-1", payload, true)
		assert.Error(t, err)
	})
}

func TestRepository_MarkWebhook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Processed", func(t *testing.T) {
		mock.ExpectExec("UPDATE payment_webhooks").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkWebhookProcessed(context.Background(), 7))
	})

	t.Run("Failed", func(t *testing.T) {
		mock.ExpectExec("UPDATE payment_webhooks").
			WithArgs(int64(7), "order not found").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkWebhookFailed(context.Background(), 7, "order not found"))
	})
}
