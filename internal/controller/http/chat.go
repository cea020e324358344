package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/domain/chat/policy"
	"github.com/vadim/tosembanda/internal/httpx/response"
)

// ChatPolicy defines the interface for chat operations
type ChatPolicy interface {
	Resolve(ctx context.Context, in policy.ResolveInput) (*entity.Conversation, error)
	Conversation(ctx context.Context, conversationID string) (*entity.Conversation, error)
	LoadMessages(ctx context.Context, conversationID string) ([]entity.Message, error)
	SendMessage(ctx context.Context, in policy.SendMessageInput) (*entity.Message, error)
	ListSummaries(ctx context.Context) ([]entity.Summary, error)
	HideConversation(ctx context.Context, conversationID string) error
}

// ChatHandler handles HTTP requests for conversations and messages
type ChatHandler struct {
	policy ChatPolicy
	logger *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(p ChatPolicy, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{policy: p, logger: logger}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Route("/conversations", func(r chi.Router) {
		// Find or create the conversation with a profile or listing owner
		r.Post("/resolve", h.Resolve())

		// Conversation list of the caller
		r.Get("/", h.ListConversations())

		// Remove from the caller's list only
		r.Delete("/{conversationId}", h.HideConversation())

		r.Get("/{conversationId}/messages", h.GetMessages())
		r.Post("/{conversationId}/messages", h.SendMessage())
	})
}

// ResolveRequest represents the request body for resolving a conversation
type ResolveRequest struct {
	TargetID  string `json:"target_id,omitempty"`
	ListingID string `json:"listing_id,omitempty"`
}

// Resolve handles POST /conversations/resolve
func (h *ChatHandler) Resolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		conv, err := h.policy.Resolve(r.Context(), policy.ResolveInput{
			TargetID:  req.TargetID,
			ListingID: req.ListingID,
		})
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		response.OK(w, conv)
	}
}

// ListConversationsResponse represents the response for the conversation list
type ListConversationsResponse struct {
	Conversations []entity.Summary `json:"conversations"`
	Total         int              `json:"total"`
}

// ListConversations handles GET /conversations
func (h *ChatHandler) ListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := h.policy.ListSummaries(r.Context())
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		response.OK(w, ListConversationsResponse{
			Conversations: summaries,
			Total:         len(summaries),
		})
	}
}

// HideConversation handles DELETE /conversations/{conversationId}
func (h *ChatHandler) HideConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.policy.HideConversation(r.Context(), chi.URLParam(r, "conversationId")); err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		response.NoContent(w)
	}
}

// GetMessagesResponse represents the response for a conversation's history
type GetMessagesResponse struct {
	Messages []entity.Message `json:"messages"`
}

// GetMessages handles GET /conversations/{conversationId}/messages
func (h *ChatHandler) GetMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := h.policy.LoadMessages(r.Context(), chi.URLParam(r, "conversationId"))
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		response.OK(w, GetMessagesResponse{Messages: messages})
	}
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Text      string  `json:"text"`
	ListingID *string `json:"listing_id,omitempty"`
}

// SendMessage handles POST /conversations/{conversationId}/messages
func (h *ChatHandler) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		msg, err := h.policy.SendMessage(r.Context(), policy.SendMessageInput{
			ConversationID: chi.URLParam(r, "conversationId"),
			Text:           req.Text,
			ListingID:      req.ListingID,
		})
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		response.Created(w, msg)
	}
}
