// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Map converts repo/infra errors into an HTTP status plus a user-visible
// message. Keeps the handler layer clean by centralizing error mapping.
// Unexpected errors surface a generic message; the specific cause stays in
// the logs.
func Map(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var vErr *ValidationError

	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Error()

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"

	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "not allowed"

	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "update conflicted, please retry"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"

	case errors.Is(err, context.Canceled):
		return 499, "request was canceled"

	default:
		return http.StatusInternalServerError, "update failed"
	}
}
