package handler

import (
	"errors"
	"net/http"

	"github.com/Rrens/task-manager/internal/api/response"
	"github.com/Rrens/task-manager/internal/domain"
	"github.com/rs/zerolog"
)

// writeError maps domain errors to HTTP responses. Anything unrecognised is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		response.BadRequest(w, "email already registered")
	case errors.Is(err, domain.ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, "invalid email or password")
	case errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrTokenInvalid):
		response.Unauthorized(w, "invalid or expired refresh token")
	case errors.Is(err, domain.ErrUserNotFound):
		response.Unauthorized(w, "user not found")
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "task not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, "internal server error")
	}
}
