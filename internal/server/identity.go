package server

import (
	"context"
	"net/http"
	"strings"

	"taskboard/internal/api"
)

// UnknownIdentity is recorded when neither the request nor the server
// configuration names the caller.
const UnknownIdentity = "unknown"

type identityContextKey struct{}

// IdentityResolver decides which identity string is recorded as author,
// creator and changed_by for a request.
type IdentityResolver struct {
	defaultIdentity string
}

// NewIdentityResolver builds a resolver with a configured fallback identity.
func NewIdentityResolver(defaultIdentity string) *IdentityResolver {
	return &IdentityResolver{defaultIdentity: strings.TrimSpace(defaultIdentity)}
}

// Resolve returns the request identity, then the configured default, then UnknownIdentity.
func (r *IdentityResolver) Resolve(ctx context.Context) string {
	if identity, ok := identityFromContext(ctx); ok {
		return identity
	}
	if r != nil && r.defaultIdentity != "" {
		return r.defaultIdentity
	}
	return UnknownIdentity
}

func contextWithIdentity(ctx context.Context, identity string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, identity)
}

func identityFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(identityContextKey{}).(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// withIdentity copies the identity header into the request context.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity := strings.TrimSpace(r.Header.Get(api.IdentityHeader)); identity != "" {
			r = r.WithContext(contextWithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}
