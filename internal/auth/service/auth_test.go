package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
	"github.com/jnnzz/psits-auth/internal/auth/service"
	"github.com/jnnzz/psits-auth/internal/auth/store/drivers/sqlite"
	"github.com/jnnzz/psits-auth/pkg/cryptox"
	"github.com/jnnzz/psits-auth/pkg/idx"
	"github.com/jnnzz/psits-auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse battery staple"

func newTestService(t *testing.T) (*service.AuthService, *sqlite.Store) {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	access, err := jwtx.NewAccessCodec("access-secret", 0)
	require.NoError(t, err)
	refresh, err := jwtx.NewRefreshCodec("refresh-secret", 0)
	require.NoError(t, err)

	return &service.AuthService{
		Access:  access,
		Refresh: refresh,
		Store:   st,
	}, st
}

func seedStudent(t *testing.T, st *sqlite.Store, status string) domain.Student {
	t.Helper()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	s := domain.Student{
		ID:           idx.New().String(),
		IDNumber:     "2024-12345",
		PasswordHash: hash,
		FirstName:    "Juan",
		LastName:     "dela Cruz",
		Campus:       "UC-Main",
		Status:       status,
	}
	require.NoError(t, st.Students().CreateStudent(context.Background(), s))
	return s
}

func seedAdmin(t *testing.T, st *sqlite.Store, status string) domain.Admin {
	t.Helper()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	a := domain.Admin{
		ID:           idx.New().String(),
		IDNumber:     "2024-admin-001",
		PasswordHash: hash,
		Name:         "Maria Santos",
		Campus:       "UC-Main",
		Position:     "President",
		Access:       "president",
		Status:       status,
	}
	require.NoError(t, st.Admins().CreateAdmin(context.Background(), a))
	return a
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("student success", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedStudent(t, st, domain.StudentStatusActive)

		result, err := svc.Login(ctx, seeded.IDNumber, testPassword)
		require.NoError(t, err)
		require.NotEmpty(t, result.AccessToken)
		require.NotEmpty(t, result.RefreshToken)
		require.Equal(t, domain.RoleStudent, result.User.Role)
		require.Equal(t, "Juan dela Cruz", result.User.Name)

		// Access token claims carry the identity.
		claims, err := svc.Access.Verify(result.AccessToken)
		require.NoError(t, err)
		require.Equal(t, seeded.ID, claims.Subject)
		require.Equal(t, string(domain.RoleStudent), claims.Role)

		// The refresh token is persisted as the session anchor.
		got, err := st.Students().GetStudentByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CurrentRefreshToken)
		require.Equal(t, result.RefreshToken, *got.CurrentRefreshToken)
	})

	t.Run("admin success resolves by identifier marker", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedAdmin(t, st, domain.AdminStatusActive)

		result, err := svc.Login(ctx, seeded.IDNumber, testPassword)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, result.User.Role)
		require.Equal(t, "president", result.User.Access)
	})

	t.Run("unknown identifier and wrong password are indistinguishable", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedStudent(t, st, domain.StudentStatusActive)

		_, unknownErr := svc.Login(ctx, "2024-99999", testPassword)
		_, wrongPwErr := svc.Login(ctx, seeded.IDNumber, "not the password")

		require.ErrorIs(t, unknownErr, service.ErrInvalidCredentials)
		require.ErrorIs(t, wrongPwErr, service.ErrInvalidCredentials)
	})

	t.Run("suspended admin", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedAdmin(t, st, domain.AdminStatusSuspended)

		_, err := svc.Login(ctx, seeded.IDNumber, testPassword)
		require.ErrorIs(t, err, service.ErrAccountSuspended)
	})

	t.Run("deleted student", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedStudent(t, st, domain.StudentStatusDeleted)

		_, err := svc.Login(ctx, seeded.IDNumber, testPassword)
		require.ErrorIs(t, err, service.ErrAccountDeleted)
	})

	t.Run("status gate runs after credential check", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedAdmin(t, st, domain.AdminStatusSuspended)

		// Wrong password on a suspended account must not leak the status.
		_, err := svc.Login(ctx, seeded.IDNumber, "not the password")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("new login replaces previous session", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedStudent(t, st, domain.StudentStatusActive)

		first, err := svc.Login(ctx, seeded.IDNumber, testPassword)
		require.NoError(t, err)
		second, err := svc.Login(ctx, seeded.IDNumber, testPassword)
		require.NoError(t, err)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)

		// The first session's refresh token is now superseded.
		_, err = svc.RefreshSession(ctx, first.RefreshToken)
		require.ErrorIs(t, err, service.ErrRefreshReuse)
	})
}

func TestRefreshSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rotates the stored token", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedStudent(t, st, domain.StudentStatusActive)

		login, err := svc.Login(ctx, seeded.IDNumber, testPassword)
		require.NoError(t, err)

		refreshed, err := svc.RefreshSession(ctx, login.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, refreshed.AccessToken)
		require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

		got, err := st.Students().GetStudentByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.Equal(t, refreshed.RefreshToken, *got.CurrentRefreshToken)
	})

	t.Run("reuse revokes the whole session", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedStudent(t, st, domain.StudentStatusActive)

		login, err := svc.Login(ctx, seeded.IDNumber, testPassword)
		require.NoError(t, err)

		refreshed, err := svc.RefreshSession(ctx, login.RefreshToken)
		require.NoError(t, err)

		// Replaying the superseded token trips theft detection.
		_, err = svc.RefreshSession(ctx, login.RefreshToken)
		require.ErrorIs(t, err, service.ErrRefreshReuse)

		// The revocation must be committed despite the error return: the
		// stored token is already gone, not merely this request rejected.
		got, err := st.Students().GetStudentByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.Nil(t, got.CurrentRefreshToken)

		// Revocation kills the newest token too.
		_, err = svc.RefreshSession(ctx, refreshed.RefreshToken)
		require.ErrorIs(t, err, service.ErrRefreshReuse)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		_, err := svc.RefreshSession(ctx, "")
		require.ErrorIs(t, err, service.ErrMissingRefreshToken)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedStudent(t, st, domain.StudentStatusActive)

		login, err := svc.Login(ctx, seeded.IDNumber, testPassword)
		require.NoError(t, err)

		_, err = svc.RefreshSession(ctx, login.AccessToken)
		require.ErrorIs(t, err, jwtx.ErrWrongType)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		svc, st := newTestService(t)
		seeded := seedStudent(t, st, domain.StudentStatusActive)

		expired, err := svc.Refresh.Sign(jwtx.Identity{
			Subject:  seeded.ID,
			IDNumber: seeded.IDNumber,
			Role:     string(domain.RoleStudent),
		}, jwtx.WithTTL(-time.Second))
		require.NoError(t, err)

		_, err = svc.RefreshSession(ctx, expired)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("vanished principal", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		// Structurally valid token whose subject no longer exists.
		orphaned, err := svc.Refresh.Sign(jwtx.Identity{
			Subject: "missing-principal",
			Role:    string(domain.RoleStudent),
		})
		require.NoError(t, err)

		_, err = svc.RefreshSession(ctx, orphaned)
		require.ErrorIs(t, err, service.ErrAccountNoLongerActive)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, st := newTestService(t)
	seeded := seedStudent(t, st, domain.StudentStatusActive)

	login, err := svc.Login(ctx, seeded.IDNumber, testPassword)
	require.NoError(t, err)

	svc.Logout(ctx, login.RefreshToken)

	got, err := st.Students().GetStudentByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.Nil(t, got.CurrentRefreshToken)

	// Garbage and absent tokens are ignored.
	svc.Logout(ctx, "not-a-token")
	svc.Logout(ctx, "")
}

func TestProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, st := newTestService(t)
	seeded := seedStudent(t, st, domain.StudentStatusActive)

	login, err := svc.Login(ctx, seeded.IDNumber, testPassword)
	require.NoError(t, err)

	claims, err := svc.Access.Verify(login.AccessToken)
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, claims)
	require.NoError(t, err)
	require.Equal(t, seeded.IDNumber, profile.IDNumber)
	require.Equal(t, domain.RoleStudent, profile.Role)

	claims.Subject = "no-such-principal"
	_, err = svc.Profile(ctx, claims)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestRevokeSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, st := newTestService(t)
	student := seedStudent(t, st, domain.StudentStatusActive)
	admin := seedAdmin(t, st, domain.AdminStatusActive)

	studentLogin, err := svc.Login(ctx, student.IDNumber, testPassword)
	require.NoError(t, err)
	adminLogin, err := svc.Login(ctx, admin.IDNumber, testPassword)
	require.NoError(t, err)

	actor, err := svc.Access.Verify(adminLogin.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(ctx, actor, student.IDNumber))

	_, err = svc.RefreshSession(ctx, studentLogin.RefreshToken)
	require.ErrorIs(t, err, service.ErrRefreshReuse)

	require.ErrorIs(t,
		svc.RevokeSession(ctx, actor, "2024-00000"),
		service.ErrNotFound,
	)
}

func TestAdminLoginIsAudited(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, st := newTestService(t)
	admin := seedAdmin(t, st, domain.AdminStatusActive)

	_, err := svc.Login(ctx, admin.IDNumber, testPassword)
	require.NoError(t, err)

	// The audit write is asynchronous; poll briefly.
	require.Eventually(t, func() bool {
		entries, err := st.AuditLog().ListRecent(ctx, 10)
		return err == nil && len(entries) == 1 &&
			entries[0].Action == domain.AuditActionAdminLogin &&
			entries[0].ActorID == admin.ID
	}, 2*time.Second, 10*time.Millisecond)
}
