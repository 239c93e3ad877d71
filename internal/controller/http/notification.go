package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-studio/internal/domain/notification/entity"
	"github.com/vadim/neo-studio/internal/httpx/response"
)

// NotificationReader defines the interface for reading notifications
type NotificationReader interface {
	Recent(ctx context.Context, limit int) ([]entity.Notification, error)
}

// NotificationHandler handles HTTP requests for notifications
type NotificationHandler struct {
	reader NotificationReader
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(reader NotificationReader) *NotificationHandler {
	return &NotificationHandler{reader: reader}
}

// RegisterRoutes registers notification routes
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.List())
}

// List handles GET /notifications?limit=
func (h *NotificationHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			if li > 100 {
				li = 100
			}
			limit = li
		}

		notifications, err := h.reader.Recent(r.Context(), limit)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, map[string]any{
			"notifications": notifications,
			"total":         len(notifications),
		})
	}
}
