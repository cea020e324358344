package http

import (
	"log/slog"
	"net/http"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/httpx/response"
)

// statusFor maps an error kind to an HTTP status
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidOperation:
		return http.StatusUnprocessableEntity
	case apperr.KindLoad:
		return http.StatusServiceUnavailable
	case apperr.KindSend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err as {"error", "code"}; server-side failures are logged with their cause
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", kind,
			"error", err,
		)
	}

	response.ErrorWithCode(w, status, string(kind), apperr.MessageOf(err))
}
