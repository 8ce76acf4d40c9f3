// internal/apperr/apperr.go
//
// Error kinds shared by every layer.
//
// Context
// -------
// Stores, services, and handlers wrap one of the sentinels below with
// fmt.Errorf("…: %w", apperr.ErrX) so callers branch on the kind with
// errors.Is instead of inspecting messages.  Handlers translate kinds into
// HTTP status codes through Status.
//
// Notes
// -----
// • ErrExternalService is normally recovered locally (fallback content) and
//   only reaches a handler when a caller opts out of the fallback.
// • Oxford commas, two spaces after periods.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrExternalService    = errors.New("external service failure")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrNotFound           = errors.New("not found")
)

// Status maps an error kind to the HTTP status handlers should return.
// Unknown errors map to 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrExternalService):
		return http.StatusBadGateway
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns a user-safe message for err.  Server-side kinds collapse
// to the sentinel text (or the generic status text) so driver errors never
// reach the client; client-side kinds keep their wrapped context.
func Message(err error) string {
	switch code := Status(err); {
	case code == http.StatusBadGateway:
		return ErrExternalService.Error()
	case code == http.StatusServiceUnavailable:
		return ErrStoreUnavailable.Error()
	case code >= http.StatusInternalServerError:
		return http.StatusText(code)
	default:
		return err.Error()
	}
}
