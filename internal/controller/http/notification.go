package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/tosembanda/internal/domain/notification/entity"
	"github.com/vadim/tosembanda/internal/httpx/response"
)

// NotificationPolicy defines the interface for notification operations
type NotificationPolicy interface {
	RecordProfileView(ctx context.Context, ownerID string) (*entity.Notification, error)
	List(ctx context.Context, limit int) ([]entity.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkAllRead(ctx context.Context) error
	MarkRead(ctx context.Context, notificationID string) error
}

// NotificationHandler handles HTTP requests for notifications
type NotificationHandler struct {
	policy NotificationPolicy
	logger *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(p NotificationPolicy, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{policy: p, logger: logger}
}

// RegisterRoutes registers notification routes
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.List())
		r.Get("/unread-count", h.UnreadCount())
		r.Post("/read-all", h.MarkAllRead())
		r.Post("/{notificationId}/read", h.MarkRead())
	})

	r.Post("/profiles/{profileId}/views", h.RecordProfileView())
}

// ListNotificationsResponse represents the response for listing notifications
type ListNotificationsResponse struct {
	Notifications []entity.Notification `json:"notifications"`
	Total         int                   `json:"total"`
}

// List handles GET /notifications
func (h *NotificationHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		list, err := h.policy.List(r.Context(), limit)
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		response.OK(w, ListNotificationsResponse{Notifications: list, Total: len(list)})
	}
}

// UnreadCountResponse represents the unread counter
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := h.policy.UnreadCount(r.Context())
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		response.OK(w, UnreadCountResponse{Count: count})
	}
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.policy.MarkAllRead(r.Context()); err != nil {
			handleError(w, r, h.logger, err)
			return
		}
		response.NoContent(w)
	}
}

// MarkRead handles POST /notifications/{notificationId}/read
func (h *NotificationHandler) MarkRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.policy.MarkRead(r.Context(), chi.URLParam(r, "notificationId")); err != nil {
			handleError(w, r, h.logger, err)
			return
		}
		response.NoContent(w)
	}
}

// RecordProfileView handles POST /profiles/{profileId}/views
func (h *NotificationHandler) RecordProfileView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := h.policy.RecordProfileView(r.Context(), chi.URLParam(r, "profileId"))
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		// own profile
		if n == nil {
			response.NoContent(w)
			return
		}
		response.Created(w, n)
	}
}
