package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/econara/econara-api/internal/auth"
	"github.com/econara/econara-api/internal/authz"
	"github.com/econara/econara-api/internal/profile"
)

type contextKey string

const contextKeyIdentity contextKey = "identity"

// IdentityResolver turns a JWT subject into a fully-populated identity.
// Satisfied by profile.Service.
type IdentityResolver interface {
	Identity(ctx context.Context, userID uuid.UUID) (authz.Identity, error)
}

// Auth validates the bearer JWT, resolves the caller's profile and injects
// the identity into the request context. Handlers never re-derive it.
//
// A valid token whose profile row is missing still passes through with a
// bare identity so onboarding endpoints can create the row; everything else
// is gated by RequireConfirmedRole.
func Auth(jwtManager *auth.JWTManager, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "missing token")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid token")
				return
			}

			subject, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid subject")
				return
			}

			ident, err := resolver.Identity(r.Context(), subject)
			if err != nil {
				if errors.Is(err, profile.ErrNotFound) {
					ident = authz.Identity{ID: subject}
				} else {
					writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
					return
				}
			}

			ctx := WithIdentity(r.Context(), ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity stores the resolved identity in the context.
func WithIdentity(ctx context.Context, ident authz.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, ident)
}

// Identity recovers the resolved identity from the context.
func Identity(ctx context.Context) (authz.Identity, bool) {
	ident, ok := ctx.Value(contextKeyIdentity).(authz.Identity)
	return ident, ok
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
