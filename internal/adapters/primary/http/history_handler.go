package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/airnode/airtrack-backend/internal/adapters/primary/validation"
	"github.com/airnode/airtrack-backend/internal/core/ports"
)

// maxHistoryLimit caps a single catch-up query.
const maxHistoryLimit = 500

// HistoryHandler serves the bounded record of recently delivered
// notifications so reconnecting clients can catch up.
type HistoryHandler struct {
	history      ports.NotificationHistory
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewHistoryHandler creates a new notification history handler
func NewHistoryHandler(
	history ports.NotificationHistory,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *HistoryHandler {
	return &HistoryHandler{
		history:      history,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "history"),
	}
}

// RegisterRoutes sets up the routing for notification history endpoints
func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListRecent)
}

// HandleListRecent handles GET /notifications?limit=50&channel=flightUpdate
func (h *HistoryHandler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	// An absent or unparseable limit falls back to the full retained
	// window.
	limit := validation.ParseIntQueryParam(r, "limit", 0)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries := h.history.ListRecent(limit)

	if channel := validation.ParseStringQueryParam(r, "channel"); channel != nil {
		filtered := entries[:0]
		for _, entry := range entries {
			if entry.Channel == *channel {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	WriteList(w, entries)
}
