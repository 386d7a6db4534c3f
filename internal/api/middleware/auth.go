package middleware

import (
	"context"
	"net/http"

	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/authz"
)

type contextKey string

const identityKey contextKey = "identity"

// Auth returns a middleware that authenticates the request as one of the
// given principal kinds, tried in the given order. The resolved identity is
// attached to the request context for handlers to scope their checks on.
func Auth(resolver *authz.Resolver, kinds ...authz.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolver.Authorize(r.Context(), r.Header, kinds...)
			if err != nil {
				response.WriteDomainError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, identity *authz.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity returns the identity stored by Auth, or nil when the request
// never passed through it.
func GetIdentity(ctx context.Context) *authz.Identity {
	identity, _ := ctx.Value(identityKey).(*authz.Identity)
	return identity
}
