package httpx

import (
	"net/http"
	"slices"
)

// RequireRole gates a route by the role claim. It must run after one of the
// token-verification layers; if no claims were attached the chain is
// misordered and the request is rejected with 401 rather than a misleading
// role mismatch.
func RequireRole(allowedRoles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				WriteMessage(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if !slices.Contains(allowedRoles, claims.Role) {
				WriteMessage(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
