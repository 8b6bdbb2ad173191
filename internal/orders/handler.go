package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/gamestore-labs/gamestore/internal/auth"
	"github.com/gamestore-labs/gamestore/internal/domain"
)

type Handler struct {
	engine   *Engine
	payments *PaymentRecorder
	logger   *slog.Logger
}

func NewHandler(engine *Engine, payments *PaymentRecorder, logger *slog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		payments: payments,
		logger:   logger,
	}
}

type createOrderRequest struct {
	Items []domain.OrderLine `json:"order_items"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.engine.CreateOrder(r.Context(), identity.UserID, req.Items)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	h.logger.Info("order created", "order_id", order.ID, "user_id", order.UserID, "total", order.TotalPrice)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	order, err := h.engine.Checkout(r.Context(), identity.UserID)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	h.logger.Info("checkout complete", "order_id", order.ID, "user_id", order.UserID, "total", order.TotalPrice)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.engine.GetOrder(r.Context(), id, identity.UserID, identity.IsAdmin())
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	orders, err := h.engine.ListOrdersForUser(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", identity.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

type recordPaymentRequest struct {
	OrderID       string          `json:"order_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentMethod string          `json:"payment_method"`
}

func (h *Handler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OrderID == "" {
		h.writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}
	if req.PaymentMethod == "" {
		h.writeError(w, http.StatusBadRequest, "payment_method is required")
		return
	}

	payment, err := h.payments.RecordPayment(r.Context(), req.OrderID, req.AmountPaid, req.PaymentMethod, identity.UserID, identity.IsAdmin())
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	h.logger.Info("payment recorded", "payment_id", payment.ID, "order_id", payment.OrderID, "transaction_id", payment.TransactionID)
	h.writeJSON(w, http.StatusCreated, payment)
}

// writeOrderError maps the order/payment error taxonomy onto HTTP statuses.
func (h *Handler) writeOrderError(w http.ResponseWriter, err error) {
	var (
		gameNotFound  *domain.GameNotFoundError
		noStock       *domain.InsufficientStockError
		badQuantity   *domain.InvalidQuantityError
		duplicateLine *domain.DuplicateLineItemError
		mismatch      *domain.AmountMismatchError
	)

	switch {
	case errors.Is(err, domain.ErrEmptyOrder), errors.Is(err, domain.ErrEmptyCart):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &badQuantity), errors.As(err, &duplicateLine), errors.As(err, &mismatch):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &gameNotFound):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &noStock):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrOrderAlreadyPaid):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "you do not have permission to access this order")
	default:
		h.logger.Error("order operation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
