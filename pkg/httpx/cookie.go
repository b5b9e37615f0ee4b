package httpx

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultRefreshCookieName is deliberately short and opaque.
const DefaultRefreshCookieName = "rtid"

// RefreshCookie describes the exact attribute set the refresh token cookie is
// written with. Clearing must reuse the identical attributes or browsers keep
// the stale cookie around.
type RefreshCookie struct {
	Name   string
	Path   string // restricted to the auth route prefix only
	Secure bool   // true in production; plain HTTP allowed in dev
	MaxAge time.Duration
}

// Set writes the refresh token as an httpOnly, same-site-lax, path-scoped
// cookie.
func (c RefreshCookie) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    token,
		Path:     c.Path,
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear re-issues the cookie with an immediate expiry and the same attribute
// set so the browser drops it.
func (c RefreshCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     c.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest extracts the refresh token from the request's Cookie header.
// Returns "" when the header or the cookie is absent.
func (c RefreshCookie) FromRequest(r *http.Request) string {
	return c.FromHeader(r.Header.Get("Cookie"))
}

// FromHeader parses a raw Cookie header into key/value pairs and returns the
// refresh token value, or "" if not present.
func (c RefreshCookie) FromHeader(rawHeader string) string {
	if rawHeader == "" {
		return ""
	}

	for _, part := range strings.Split(rawHeader, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		if key != c.name() {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			return decoded
		}
		return value
	}
	return ""
}

func (c RefreshCookie) name() string {
	if c.Name == "" {
		return DefaultRefreshCookieName
	}
	return c.Name
}
