package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the presentation layer
type Kind string

const (
	KindUnauthenticated  Kind = "UNAUTHENTICATED"
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidOperation Kind = "INVALID_OPERATION"
	KindLoad             Kind = "LOAD_ERROR"
	KindSend             Kind = "SEND_ERROR"
	KindInternal         Kind = "INTERNAL"
)

// Error is an application error carrying a kind, a user-facing message and an optional cause
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"error"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind.
// A target with an empty message matches any error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// New creates an error of the given kind
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping cause
func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Unauthenticated(msg string) error {
	return New(KindUnauthenticated, msg)
}

func NotFound(msg string) error {
	return New(KindNotFound, msg)
}

func InvalidOperation(msg string) error {
	return New(KindInvalidOperation, msg)
}

// Marker errors for errors.Is checks against a whole kind
var (
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidOperation = &Error{Kind: KindInvalidOperation}
	ErrLoad             = &Error{Kind: KindLoad}
	ErrSend             = &Error{Kind: KindSend}
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Classify wraps err into kind unless it already carries a user-facing kind
func Classify(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return err
	}
	return Wrap(kind, message, err)
}
