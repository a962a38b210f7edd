package errors

import (
	"context"
	stderrors "errors"
	"net/http"
)

// MapToHTTPStatus translates a relay error into the status answered to the caller.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusAccepted
	case stderrors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case stderrors.Is(err, ErrDuplicateResource):
		return http.StatusConflict
	case stderrors.Is(err, ErrRateLimited), stderrors.Is(err, ErrSessionLimit):
		return http.StatusTooManyRequests
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
