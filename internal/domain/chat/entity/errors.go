package entity

import "github.com/vadim/tosembanda/internal/apperr"

// Domain errors for chat
var (
	ErrConversationNotFound = apperr.NotFound("conversation not found")
	ErrListingNotFound      = apperr.NotFound("listing not found")
	ErrProfileNotFound      = apperr.NotFound("profile not found")
	ErrSelfContact          = apperr.InvalidOperation("cannot start a conversation with yourself")
	ErrTargetRequired       = apperr.InvalidOperation("a target profile or listing is required")
	ErrEmptyMessage         = apperr.InvalidOperation("message text cannot be empty")
	ErrMessageTooLong       = apperr.InvalidOperation("message exceeds maximum length")
	ErrListingMismatch      = apperr.InvalidOperation("listing does not belong to this conversation")
	ErrUnauthenticated      = apperr.Unauthenticated("sign in to use the chat")
)
