package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jnnzz/psits-auth/pkg/jwtx"
	"github.com/jnnzz/psits-auth/pkg/slogx"
)

// RequireAccessToken is the fast, stateless authentication layer: it verifies
// the bearer access token's signature and expiry only and attaches the claims
// to the request context. No I/O, so a principal deactivated after issuance
// keeps access until the token expires. Destructive routes should use the
// DB-checked variant instead.
func RequireAccessToken(codec *jwtx.AccessCodec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				WriteMessage(w, http.StatusUnauthorized, "Access token required")
				return
			}

			claims, err := codec.Verify(token)
			if err != nil {
				slogx.FromContext(r.Context()).Warn("access token rejected", "err", err)
				WriteMessage(w, http.StatusUnauthorized, AccessTokenErrorMessage(err))
				return
			}

			ctx := ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header. A duplicated
// header is tolerated by taking the first value.
func BearerToken(r *http.Request) string {
	values := r.Header.Values("Authorization")
	if len(values) == 0 {
		return ""
	}
	scheme, token, found := strings.Cut(values[0], " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AccessTokenErrorMessage maps a codec verification error onto the response
// message every authentication layer uses, so callers can't be distinguished
// by their failure wording.
func AccessTokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return "Access token expired"
	case errors.Is(err, jwtx.ErrWrongType):
		return "Invalid access token type"
	default:
		return "Invalid access token"
	}
}
