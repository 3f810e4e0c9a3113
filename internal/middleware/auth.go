package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/clinote/clinote-backend/internal/auth"
	"github.com/clinote/clinote-backend/internal/metrics"
	"github.com/clinote/clinote-backend/internal/models"
	"github.com/clinote/clinote-backend/internal/repository"
	"github.com/rs/zerolog/log"
)

type contextKey string

const principalKey contextKey = "principal"

// Authenticator resolves bearer tokens into principals. Every reason
// for rejection maps to the same 401 response so callers cannot
// enumerate failure modes.
type Authenticator struct {
	tokens *auth.TokenManager
	users  repository.UserRepository
}

// NewAuthenticator creates the authentication middleware
func NewAuthenticator(tokens *auth.TokenManager, users repository.UserRepository) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Require verifies the bearer token, loads the principal and stores
// it in the request context. Invalid, expired or malformed tokens,
// unknown subjects and inactive accounts are all rejected alike.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			a.reject(w, r, "missing bearer token")
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			a.reject(w, r, "token verification failed")
			return
		}

		user, err := a.users.GetByID(r.Context(), claims.SubjectID)
		if err != nil || !user.IsActive {
			a.reject(w, r, "principal unavailable")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, reason string) {
	metrics.AuthFailures.Inc()
	log.Warn().Str("path", r.URL.Path).Str("reason", reason).Msg("Authentication rejected")

	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}`))
}

// GetPrincipal extracts the authenticated principal from context
func GetPrincipal(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(principalKey).(*models.User)
	return user, ok
}
