package auth_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
	httpapi "github.com/jnnzz/psits-auth/internal/auth/http"
	"github.com/jnnzz/psits-auth/internal/auth/service"
	"github.com/jnnzz/psits-auth/internal/auth/store/drivers/sqlite"
	"github.com/jnnzz/psits-auth/pkg/cryptox"
	"github.com/jnnzz/psits-auth/pkg/httpx"
	"github.com/jnnzz/psits-auth/pkg/idx"
	"github.com/jnnzz/psits-auth/pkg/jwtx"
	"github.com/jnnzz/psits-auth/pkg/slogx"
	"github.com/stretchr/testify/require"
)

/*
 * End-to-end tests driving the full service through the public SDK. The
 * service runs in-process on an httptest server backed by a real SQLite file,
 * so the whole stack from cookie handling down to the conditional rotation
 * query is exercised.
 */

const (
	studentIDNumber = "2024-12345"
	adminIDNumber   = "2024-admin-001"
	password        = "correct horse battery staple"
)

// setupAuthService starts the service and seeds one student and one
// president-level admin. Returns the base URL.
func setupAuthService(t *testing.T) string {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	access, err := jwtx.NewAccessCodec("e2e-access-secret", 0)
	require.NoError(t, err)
	refresh, err := jwtx.NewRefreshCodec("e2e-refresh-secret", 0)
	require.NoError(t, err)

	svc := &service.AuthService{Access: access, Refresh: refresh, Store: st}

	router := httpapi.NewRouter(
		access,
		st,
		svc,
		httpx.RefreshCookie{Path: httpapi.BasePath},
		"e2e",
		slogx.New(slogx.Config{Service: "auth-e2e", Level: "error", Format: "text"}),
	)
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.Students().CreateStudent(ctx, domain.Student{
		ID:           idx.New().String(),
		IDNumber:     studentIDNumber,
		PasswordHash: hash,
		FirstName:    "Juan",
		LastName:     "dela Cruz",
		Course:       "BSIT",
		Year:         "3",
		Campus:       "UC-Main",
		Status:       domain.StudentStatusActive,
	}))
	require.NoError(t, st.Admins().CreateAdmin(ctx, domain.Admin{
		ID:           idx.New().String(),
		IDNumber:     adminIDNumber,
		PasswordHash: hash,
		Name:         "Maria Santos",
		Campus:       "UC-Main",
		Position:     "President",
		Access:       "president",
		Status:       domain.AdminStatusActive,
	}))

	return server.URL
}
