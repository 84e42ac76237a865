package middleware

import (
	"context"
	"net/http"

	"github.com/edvin/bgpvpn/internal/api/response"
	"github.com/edvin/bgpvpn/internal/model"
)

// GetIdentity extracts the authenticated identity from the request context.
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(IdentityKey).(*model.Identity)
	return identity
}

// IsAdmin reports whether the request was made with an admin key.
func IsAdmin(ctx context.Context) bool {
	identity := GetIdentity(ctx)
	return identity != nil && identity.IsAdmin
}

// RequireAdmin returns middleware that rejects non-admin keys with 403.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdmin(r.Context()) {
				response.WriteError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
