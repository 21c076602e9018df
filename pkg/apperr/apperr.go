package apperr

import (
	"errors"
	"net/http"
)

// Sentinel errors for the user-visible failure modes. Services wrap these
// with fmt.Errorf("...: %w", ...) and handlers map them with errors.Is.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrInvalidToken = errors.New("invalid token")
	ErrIndexSync    = errors.New("search index sync failed")
)

// Status maps an error chain to an HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrIndexSync):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
