package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/bgpvpn/internal/api/response"
	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

type contextKey string

// IdentityKey holds the *model.Identity of the authenticated caller.
const IdentityKey contextKey = "identity"

// APIKeyIDKey holds the ID of the API key used for the request (audit logger).
const APIKeyIDKey contextKey = "api_key_id"

// Authenticator resolves a raw API key to an identity.
// *core.APIKeyService satisfies this interface.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*model.Identity, error)
}

// Auth returns a middleware that authenticates the API key sent as a bearer
// token or in the X-API-Key header.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r)
			if key == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			identity, err := authn.Authenticate(r.Context(), key)
			if errors.Is(err, core.ErrUnauthenticated) {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("api key lookup failed")
				response.WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("tenant_id", identity.TenantID).Str("api_key_id", identity.KeyID)
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity stores identity in ctx the way Auth does.
func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	ctx = context.WithValue(ctx, IdentityKey, identity)
	return context.WithValue(ctx, APIKeyIDKey, identity.KeyID)
}

// extractAPIKey returns the bearer token of the Authorization header, falling
// back to X-API-Key when there is no bearer token.
func extractAPIKey(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	return r.Header.Get("X-API-Key")
}
