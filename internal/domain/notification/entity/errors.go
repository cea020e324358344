package entity

import "github.com/vadim/tosembanda/internal/apperr"

// Domain errors for notifications
var (
	ErrNotificationNotFound = apperr.NotFound("notification not found")
	ErrProfileNotFound      = apperr.NotFound("profile not found")
	ErrUnauthenticated      = apperr.Unauthenticated("sign in to see notifications")
)
