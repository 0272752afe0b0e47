// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/tasktrack/tasktrack/internal/shared"
)

// StatusFor maps a domain error kind to an HTTP status code.
func StatusFor(kind shared.Kind) int {
	switch kind {
	case shared.KindValidation, shared.KindConflict:
		return http.StatusBadRequest
	case shared.KindUnauthenticated, shared.KindInvalidToken:
		return http.StatusUnauthorized
	case shared.KindForbidden:
		return http.StatusForbidden
	case shared.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to JSON error responses. Errors that are not domain
// errors are reported as a generic server error so internals never reach the client.
func RespondError(w http.ResponseWriter, err error) {
	var domainErr *shared.Error
	if !errors.As(err, &domainErr) {
		Problem(w, http.StatusInternalServerError, "internal_error", "Server Error")
		return
	}
	Problem(w, StatusFor(domainErr.Kind), domainErr.Code, domainErr.Message)
}
