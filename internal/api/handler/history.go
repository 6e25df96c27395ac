package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iconidentify/vidgrab/internal/domain"
)

const maxHistoryLimit = 500

// History lists completed downloads.
type History interface {
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// HistoryHandler serves the download history.
type HistoryHandler struct {
	history History
	logger  *slog.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(history History, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger.With("component", "history_handler"),
	}
}

// HistoryResponse wraps history entries.
type HistoryResponse struct {
	Entries []domain.HistoryEntry `json:"entries"`
	Count   int                   `json:"count"`
}

// List handles GET /history?limit=N.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Count: len(entries)})
}
