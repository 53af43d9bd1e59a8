package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rrens/sign-gateway/internal/api/response"
	"github.com/Rrens/sign-gateway/internal/domain"
)

// writeError maps a service error onto its HTTP status and body
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var cerr *domain.ClassificationError

	switch {
	case errors.Is(err, domain.ErrValidation):
		response.BadRequest(w, detail(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrUpload):
		response.BadRequest(w, detail(err, domain.ErrUpload))
	case errors.Is(err, domain.ErrDuplicateUser):
		response.BadRequest(w, "User already exists with this email")
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid email or password")
	case errors.Is(err, domain.ErrMissingToken):
		response.Unauthorized(w, "Access token required")
	case errors.Is(err, domain.ErrInvalidToken):
		response.Forbidden(w, "Invalid or expired token")
	case errors.As(err, &cerr):
		response.ErrorWithDetails(w, http.StatusInternalServerError, "Prediction failed", cerr.Detail)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		response.InternalError(w, "Internal server error")
	}
}

// detail drops the sentinel prefix added by domain.Validationf and domain.Uploadf
func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
