package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gamestore-labs/gamestore/internal/auth"
	"github.com/gamestore-labs/gamestore/internal/domain"
)

type Handler struct {
	repo   *CartRepository
	logger *slog.Logger
}

func NewHandler(repo *CartRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

type cartResponse struct {
	Items []domain.CartLine `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	lines, err := h.repo.Items(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", identity.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}

	h.writeJSON(w, http.StatusOK, cartResponse{Items: lines, Total: total})
}

type addRequest struct {
	GameID   int64 `json:"game_id"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.GameID <= 0 {
		h.writeError(w, http.StatusBadRequest, "game_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		h.writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	item, err := h.repo.Add(r.Context(), identity.UserID, req.GameID, req.Quantity)
	if err != nil {
		var notFound *domain.GameNotFoundError
		if errors.As(err, &notFound) {
			h.writeError(w, http.StatusNotFound, notFound.Error())
			return
		}
		h.logger.Error("failed to add cart item", "error", err, "user_id", identity.UserID, "game_id", req.GameID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item added", "user_id", identity.UserID, "game_id", req.GameID, "quantity", item.Quantity)
	h.writeJSON(w, http.StatusOK, item)
}

type updateRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	gameID, err := strconv.ParseInt(r.PathValue("gameID"), 10, 64)
	if err != nil || gameID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		h.writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	updated, err := h.repo.SetQuantity(r.Context(), identity.UserID, gameID, req.Quantity)
	if err != nil {
		h.logger.Error("failed to update cart item", "error", err, "user_id", identity.UserID, "game_id", gameID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !updated {
		h.writeError(w, http.StatusNotFound, "cart item not found")
		return
	}

	h.writeJSON(w, http.StatusOK, domain.CartItem{UserID: identity.UserID, GameID: gameID, Quantity: req.Quantity})
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	gameID, err := strconv.ParseInt(r.PathValue("gameID"), 10, 64)
	if err != nil || gameID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	removed, err := h.repo.Remove(r.Context(), identity.UserID, gameID)
	if err != nil {
		h.logger.Error("failed to remove cart item", "error", err, "user_id", identity.UserID, "game_id", gameID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !removed {
		h.writeError(w, http.StatusNotFound, "cart item not found")
		return
	}

	h.logger.Info("cart item removed", "user_id", identity.UserID, "game_id", gameID)
	w.WriteHeader(http.StatusNoContent)
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
