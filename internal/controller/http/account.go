package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/tosembanda/internal/auth"
	"github.com/vadim/tosembanda/internal/httpx/response"
)

// MeResponse identifies the caller
type MeResponse struct {
	UserID string `json:"user_id"`
}

// AccountHandler handles HTTP requests about the authenticated account
type AccountHandler struct{}

// NewAccountHandler creates a new account handler
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.Me())
}

// Me handles GET /me
func (h *AccountHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			response.ErrorWithCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", "sign in to use the chat")
			return
		}

		response.OK(w, MeResponse{UserID: id.UserID})
	}
}
