package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"flashstore-be/internal/coupon"
	"flashstore-be/internal/logger"
	"flashstore-be/internal/middleware"
	"flashstore-be/internal/order"
	"flashstore-be/internal/payment"
	"flashstore-be/internal/payment/webhook"
	"flashstore-be/internal/stock"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	orders    order.Service
	coupons   coupon.Service
	gateway   payment.Gateway
	confirmer webhook.Confirmer
	webhook   *webhook.Handler
}

func NewHandler(orders order.Service, coupons coupon.Service, gateway payment.Gateway, confirmer webhook.Confirmer, wh *webhook.Handler) *Handler {
	return &Handler{
		orders:    orders,
		coupons:   coupons,
		gateway:   gateway,
		confirmer: confirmer,
		webhook:   wh,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Post("/api/orders", h.CreateOrder)
	r.Get("/api/orders/{id}", h.GetOrder)
	r.Post("/api/coupons/validate", h.ValidateCoupon)
	r.Post("/api/payments/verify", h.VerifyPayment)
	r.Post("/webhook/razorpay", h.webhook.ServeHTTP)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var input order.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	// The token identity always wins over whatever the body claims.
	if uid, ok := middleware.UserIDFrom(r.Context()); ok {
		input.UserID = &uid
	}

	o, err := h.orders.CreateOrder(r.Context(), input)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id)
	if errors.Is(err, order.ErrOrderNotFound) {
		WriteJSONError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to load order", zap.Error(err))
		WriteJSONError(w, "failed to load order", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, o)
}

type validateCouponRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// ValidateCoupon is the cart preview check. The answer is advisory: checkout
// re-validates against the server-computed subtotal.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		WriteJSONError(w, "coupon code is required", http.StatusBadRequest)
		return
	}

	validation, _, err := h.coupons.Validate(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		logger.FromCtx(r.Context()).Error("coupon validation failed", zap.Error(err))
		WriteJSONError(w, "failed to validate coupon", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, validation)
}

type verifyPaymentRequest struct {
	OrderID           string `json:"order_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// VerifyPayment handles the browser redirect flow. It is a fallback for the
// webhook: both paths converge on the same idempotent confirmation.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if err := h.gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		logger.FromCtx(r.Context()).Warn("payment signature rejected",
			zap.String("order_id", req.OrderID),
		)
		WriteJSONError(w, "invalid payment signature", http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	res, err := h.confirmer.ConfirmPayment(r.Context(), orderID, req.RazorpayPaymentID)
	if errors.Is(err, order.ErrOrderNotFound) {
		WriteJSONError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromCtx(r.Context()).Error("payment confirmation failed", zap.Error(err))
		WriteJSONError(w, "failed to confirm payment", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, res)
}

// writeOrderError maps checkout failures onto status codes. Messages from
// typed domain errors are shown to the buyer verbatim.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		rateErr    *order.RateLimitError
		verifyErr  *order.PriceVerificationError
		mismatch   *order.PriceMismatchError
		soldOut    *stock.SoldOutError
		raceLoss   *stock.ReservationError
		persistErr *order.PersistenceError
	)

	switch {
	case errors.As(err, &rateErr):
		WriteJSONError(w, rateErr.Error(), http.StatusTooManyRequests)
	case errors.As(err, &verifyErr):
		WriteJSONError(w, verifyErr.Error(), http.StatusBadRequest)
	case errors.As(err, &mismatch):
		WriteJSONError(w, mismatch.Error(), http.StatusBadRequest)
	case errors.As(err, &soldOut):
		WriteJSONError(w, soldOut.Error(), http.StatusConflict)
	case errors.As(err, &raceLoss):
		WriteJSONError(w, raceLoss.Error(), http.StatusConflict)
	case errors.As(err, &persistErr):
		logger.FromCtx(r.Context()).Error("order persistence failed", zap.Error(err))
		WriteJSONError(w, "failed to create order", http.StatusInternalServerError)
	default:
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
	}
}

func WriteJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
