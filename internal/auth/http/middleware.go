package http

import (
	"errors"
	"net/http"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
	"github.com/jnnzz/psits-auth/internal/auth/store"
	"github.com/jnnzz/psits-auth/pkg/httpx"
	"github.com/jnnzz/psits-auth/pkg/jwtx"
	"github.com/jnnzz/psits-auth/pkg/slogx"
)

// RequireActiveSession is the DB-checked authentication layer for destructive
// routes. On top of token verification it re-reads the principal and rejects
// tokens whose account has since been deactivated, or whose identity claims no
// longer match the stored record.
func RequireActiveSession(codec *jwtx.AccessCodec, st store.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := httpx.BearerToken(r)
			if token == "" {
				httpx.WriteMessage(w, http.StatusUnauthorized, "Access token required")
				return
			}

			claims, err := codec.Verify(token)
			if err != nil {
				httpx.WriteMessage(w, http.StatusUnauthorized, httpx.AccessTokenErrorMessage(err))
				return
			}

			active, matches, err := checkPrincipal(r, st, claims)
			if err != nil {
				slogx.FromContext(r.Context()).Error("session check failed", "err", err)
				httpx.WriteMessage(w, http.StatusInternalServerError, "Could not verify session")
				return
			}
			if !active {
				httpx.WriteMessage(w, http.StatusForbidden, "Account no longer active")
				return
			}
			if !matches {
				httpx.WriteMessage(w, http.StatusForbidden, "Account credentials mismatch")
				return
			}

			ctx := httpx.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// checkPrincipal reports whether the token's subject still exists and is
// active, and whether the token's identifier still matches the stored one.
func checkPrincipal(r *http.Request, st store.Store, claims jwtx.Claims) (active, matches bool, err error) {
	ctx := r.Context()

	if domain.Role(claims.Role) == domain.RoleAdmin {
		admin, err := st.Admins().GetAdminByID(ctx, claims.Subject)
		if errors.Is(err, store.ErrNotFound) {
			return false, false, nil
		}
		if err != nil {
			return false, false, err
		}
		return admin.Active(), admin.IDNumber == claims.IDNumber, nil
	}

	student, err := st.Students().GetStudentByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return student.Active(), student.IDNumber == claims.IDNumber, nil
}

// RequireAdminAccess gates a route on the admin's stored access level. It
// assumes an authentication layer already ran; the access level is read fresh
// from the database, never trusted from the token.
func RequireAdminAccess(st store.Store, allowed ...string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := httpx.ClaimsFromContext(r.Context())
			if !ok {
				httpx.WriteMessage(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if domain.Role(claims.Role) != domain.RoleAdmin {
				httpx.WriteMessage(w, http.StatusForbidden, "Admin access required")
				return
			}

			admin, err := st.Admins().GetAdminByID(r.Context(), claims.Subject)
			if errors.Is(err, store.ErrNotFound) {
				httpx.WriteMessage(w, http.StatusForbidden, "Admin not found")
				return
			}
			if err != nil {
				slogx.FromContext(r.Context()).Error("admin access check failed", "err", err)
				httpx.WriteMessage(w, http.StatusInternalServerError, "Could not verify access")
				return
			}

			if !accessAllowed(admin.Access, allowed) {
				httpx.WriteMessage(w, http.StatusForbidden, "Insufficient admin permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func accessAllowed(access string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == access {
			return true
		}
	}
	return false
}
