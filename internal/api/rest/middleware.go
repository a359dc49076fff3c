package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/security"
	"maktaba-backend/internal/service"
)

type contextKey string

const actorKey contextKey = "actor"

// actorFrom returns the authenticated actor stored by the auth middleware.
func actorFrom(ctx context.Context) (*domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(*domain.Actor)
	return actor, ok
}

// AuthMiddleware validates the bearer token and resolves the caller to a
// full actor. The role and permissions are re-read from storage on every
// request; the token only proves identity.
type AuthMiddleware struct {
	tokens security.TokenManager
	auth   service.AuthService
}

func NewAuthMiddleware(tokens security.TokenManager, auth service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, auth: auth}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeUnauthorized(w, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeUnauthorized(w, "authorization header must be a bearer token")
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		actor, err := m.auth.ActorFromUserID(r.Context(), userID)
		if err != nil {
			if domain.KindOf(err) == domain.ErrNotFound || domain.KindOf(err) == domain.ErrForbidden {
				writeUnauthorized(w, "account not found or deactivated")
				return
			}
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
