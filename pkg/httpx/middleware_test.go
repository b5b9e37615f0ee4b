package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jnnzz/psits-auth/pkg/httpx"
	"github.com/jnnzz/psits-auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newAccessCodec(t *testing.T) *jwtx.AccessCodec {
	t.Helper()
	codec, err := jwtx.NewAccessCodec("middleware-test-secret", time.Minute)
	require.NoError(t, err)
	return codec
}

func TestRequireAccessToken(t *testing.T) {
	t.Parallel()
	codec := newAccessCodec(t)

	identity := jwtx.Identity{Subject: "sub-1", IDNumber: "2024-00001", Role: "Student", Campus: "UC-Main"}

	handler := httpx.Chain(okHandler(), httpx.RequireAccessToken(codec))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token attaches claims", func(t *testing.T) {
		token, err := codec.Sign(identity)
		require.NoError(t, err)

		var got jwtx.Claims
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := httpx.ClaimsFromContext(r.Context())
			require.True(t, ok)
			got = claims
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		httpx.Chain(inner, httpx.RequireAccessToken(codec)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, identity, got.Identity())
	})

	t.Run("duplicated header takes the first value", func(t *testing.T) {
		token, err := codec.Sign(identity)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Add("Authorization", "Bearer "+token)
		req.Header.Add("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := codec.Sign(identity, jwtx.WithTTL(-time.Second))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Access token expired")
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	codec := newAccessCodec(t)

	t.Run("misordered chain fails with 401, not 403", func(t *testing.T) {
		// Role gate without a prior authentication layer.
		handler := httpx.Chain(okHandler(), httpx.RequireRole("Admin"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		token, err := codec.Sign(jwtx.Identity{Subject: "s", IDNumber: "2024-1", Role: "Student", Campus: "UC-Main"})
		require.NoError(t, err)

		handler := httpx.Chain(okHandler(),
			httpx.RequireAccessToken(codec),
			httpx.RequireRole("Admin"),
		)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("allowed role", func(t *testing.T) {
		token, err := codec.Sign(jwtx.Identity{Subject: "s", IDNumber: "2024-1", Role: "Student", Campus: "UC-Main"})
		require.NoError(t, err)

		handler := httpx.Chain(okHandler(),
			httpx.RequireAccessToken(codec),
			httpx.RequireRole("Admin", "Student"),
		)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	config := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	handler := httpx.Chain(okHandler(), httpx.RateLimitByIP(config))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.1.2.3:5000"

	for range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client IP gets its own bucket.
	other := httptest.NewRequest(http.MethodPost, "/", nil)
	other.RemoteAddr = "10.9.9.9:5000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	require.Equal(t, http.StatusOK, rec.Code)
}
