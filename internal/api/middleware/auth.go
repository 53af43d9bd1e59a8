package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rrens/sign-gateway/internal/api/response"
	"github.com/Rrens/sign-gateway/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier resolves a bearer token into the caller it was issued to
type TokenVerifier interface {
	Verify(token string) (*domain.Identity, error)
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate rejects requests without a valid bearer token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.verifier.Verify(bearerToken(r))
		if err != nil {
			if errors.Is(err, domain.ErrMissingToken) {
				response.Unauthorized(w, "Access token required")
				return
			}
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("rejected bearer token")
			response.Forbidden(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		logger := zerolog.Ctx(ctx).With().Str("user_id", identity.UserID.String()).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
	})
}

// GetIdentity gets the authenticated caller from context
func GetIdentity(ctx context.Context) (*domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*domain.Identity)
	return identity, ok
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header, or ""
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
