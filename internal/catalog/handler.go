package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gamestore-labs/gamestore/internal/domain"
)

type Handler struct {
	repo   *GameRepository
	logger *slog.Logger
}

func NewHandler(repo *GameRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "skip", 0)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	games, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list games", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, games)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h)
	if !ok {
		return
	}

	game, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get game", "error", err, "game_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if game == nil {
		h.writeError(w, http.StatusNotFound, "game not found")
		return
	}

	h.writeJSON(w, http.StatusOK, game)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var game domain.Game
	if err := json.NewDecoder(r.Body).Decode(&game); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if game.Title == "" {
		h.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if game.Price.IsNegative() {
		h.writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}
	if game.StockQuantity < 0 {
		h.writeError(w, http.StatusBadRequest, "stock_quantity must not be negative")
		return
	}

	if err := h.repo.Create(r.Context(), &game); err != nil {
		h.logger.Error("failed to create game", "error", err, "title", game.Title)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("game created", "game_id", game.ID, "title", game.Title)
	h.writeJSON(w, http.StatusCreated, game)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h)
	if !ok {
		return
	}

	var update GameUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if update.Price != nil && update.Price.IsNegative() {
		h.writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}
	if update.StockQuantity != nil && *update.StockQuantity < 0 {
		h.writeError(w, http.StatusBadRequest, "stock_quantity must not be negative")
		return
	}

	game, err := h.repo.Update(r.Context(), id, update)
	if err != nil {
		h.logger.Error("failed to update game", "error", err, "game_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if game == nil {
		h.writeError(w, http.StatusNotFound, "game not found")
		return
	}

	h.logger.Info("game updated", "game_id", game.ID)
	h.writeJSON(w, http.StatusOK, game)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h)
	if !ok {
		return
	}

	deleted, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrGameReferenced) {
			h.writeError(w, http.StatusConflict, "game is referenced by existing orders")
			return
		}
		h.logger.Error("failed to delete game", "error", err, "game_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !deleted {
		h.writeError(w, http.StatusNotFound, "game not found")
		return
	}

	h.logger.Info("game deleted", "game_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request, h *Handler) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid game id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
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
