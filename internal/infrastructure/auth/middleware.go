package auth

import (
	"context"
	"net/http"

	"github.com/honeynil/RecipeService/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// SessionResolver resolves a raw token to an identity or nil.
type SessionResolver interface {
	ResolveSession(ctx context.Context, rawToken string) *models.Identity
}

// SessionMiddleware attaches the resolved identity to the request context.
// Anonymous requests pass through unchanged.
func SessionMiddleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity := resolver.ResolveSession(r.Context(), tokenStr)
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the request's identity, or nil when anonymous.
func IdentityFromContext(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(identityKey).(*models.Identity)
	return identity
}
