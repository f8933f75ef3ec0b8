package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"flashstore-be/internal/logger"
	"flashstore-be/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const provider = "razorpay"

// Payload is the slice of Razorpay's webhook body this service reads. The
// storefront writes its own order uuid into the payment notes at checkout.
type Payload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Notes   struct {
					OrderID string `json:"order_id"`
				} `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type Confirmer interface {
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, paymentID string) (*payment.Result, error)
}

type Handler struct {
	gateway   payment.Gateway
	confirmer Confirmer
	ledger    payment.Repository
}

func NewHandler(gateway payment.Gateway, confirmer Confirmer, ledger payment.Repository) *Handler {
	return &Handler{
		gateway:   gateway,
		confirmer: confirmer,
		ledger:    ledger,
	}
}

// ServeHTTP processes one gateway delivery. Deliveries are at-least-once:
// the ledger dedupes on (provider, event id) and the processor itself is
// idempotent, so replays always answer 200.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.gateway.VerifyWebhookSignature(body, r.Header.Get("X-Razorpay-Signature")); err != nil {
		log.Warn("webhook signature rejected", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	eventID := r.Header.Get("X-Razorpay-Event-Id")
	if eventID == "" {
		http.Error(w, "missing event id", http.StatusBadRequest)
		return
	}

	externalID := payload.Payload.Payment.Entity.Notes.OrderID
	webhookID, status, duplicate, err := h.ledger.SaveWebhook(ctx, provider, eventID, payload.Event, externalID, body, true)
	if err != nil {
		log.Error("failed to record webhook", zap.Error(err))
		http.Error(w, "failed to record webhook", http.StatusInternalServerError)
		return
	}

	// Redeliveries of a processed event stop here. A received or failed row
	// means an earlier attempt never completed, so the retry re-dispatches:
	// the confirmer is idempotent, the ledger only tracks disposition.
	if duplicate && status == payment.WebhookStatusProcessed {
		log.Info("duplicate webhook delivery ignored", zap.String("event_id", eventID))
		w.WriteHeader(http.StatusOK)
		return
	}
	if duplicate {
		log.Info("retrying webhook delivery",
			zap.String("event_id", eventID),
			zap.String("status", status),
		)
	}

	if payload.Event != "payment.captured" {
		// Other lifecycle events are recorded but not acted on.
		_ = h.ledger.MarkWebhookProcessed(ctx, webhookID)
		w.WriteHeader(http.StatusOK)
		return
	}

	orderID, err := uuid.Parse(externalID)
	if err != nil {
		log.Error("webhook carries unparseable order id",
			zap.String("order_id", externalID),
		)
		_ = h.ledger.MarkWebhookFailed(ctx, webhookID, "unparseable order id")
		http.Error(w, "invalid order reference", http.StatusBadRequest)
		return
	}

	res, err := h.confirmer.ConfirmPayment(ctx, orderID, payload.Payload.Payment.Entity.ID)
	if err != nil {
		log.Error("payment confirmation failed", zap.Error(err))
		_ = h.ledger.MarkWebhookFailed(ctx, webhookID, err.Error())
		http.Error(w, "failed to process payment", http.StatusInternalServerError)
		return
	}

	_ = h.ledger.MarkWebhookProcessed(ctx, webhookID)

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(res)
}
