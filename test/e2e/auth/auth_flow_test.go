package auth_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jnnzz/psits-auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestStudentLoginRefreshFlow walks the complete student session lifecycle:
// login, authenticated profile fetch, refresh with rotation, logout.
func TestStudentLoginRefreshFlow(t *testing.T) {
	t.Parallel()
	baseURL := setupAuthService(t)

	client, err := authsdk.NewSDKClient(baseURL)
	require.NoError(t, err)

	session, err := client.Login(t.Context(), studentIDNumber, password)
	require.NoError(t, err)
	require.Equal(t, "Student", session.User().Role)

	oldAccessToken := session.AccessToken()
	require.NotEmpty(t, oldAccessToken)

	profile, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, studentIDNumber, profile.IDNumber)
	require.Equal(t, "UC-Main", profile.Campus)

	require.NoError(t, session.Refresh(t.Context()))
	require.NotEqual(t, oldAccessToken, session.AccessToken(), "access token should be rotated")

	// The rotated session still works.
	_, err = session.Me(t.Context())
	require.NoError(t, err)

	require.NoError(t, session.Logout(t.Context()))

	// After logout the refresh cookie is gone; the session cannot recover.
	err = session.Refresh(t.Context())
	require.Error(t, err)
}

// TestWrongCredentials verifies the service never reveals whether the
// identifier or the password was wrong.
func TestWrongCredentials(t *testing.T) {
	t.Parallel()
	baseURL := setupAuthService(t)

	client, err := authsdk.NewSDKClient(baseURL)
	require.NoError(t, err)

	_, badUserErr := client.Login(t.Context(), "2024-00000", password)
	_, badPassErr := client.Login(t.Context(), studentIDNumber, "wrong password")

	var apiErr1, apiErr2 *authsdk.APIError
	require.ErrorAs(t, badUserErr, &apiErr1)
	require.ErrorAs(t, badPassErr, &apiErr2)
	require.Equal(t, http.StatusBadRequest, apiErr1.StatusCode)
	require.Equal(t, apiErr1.Message, apiErr2.Message)
}

// TestAdminRevokesStudentSession drives the admin force-logout path through
// all three authorization layers.
func TestAdminRevokesStudentSession(t *testing.T) {
	t.Parallel()
	baseURL := setupAuthService(t)

	studentClient, err := authsdk.NewSDKClient(baseURL)
	require.NoError(t, err)
	studentSession, err := studentClient.Login(t.Context(), studentIDNumber, password)
	require.NoError(t, err)

	adminClient, err := authsdk.NewSDKClient(baseURL)
	require.NoError(t, err)
	adminSession, err := adminClient.Login(t.Context(), adminIDNumber, password)
	require.NoError(t, err)
	require.Equal(t, "president", adminSession.User().Access)

	body, err := json.Marshal(map[string]string{"id_number": studentIDNumber})
	require.NoError(t, err)
	resp, err := adminSession.Do(t.Context(), http.MethodPost, "/v2/auth/revoke", body, map[string]string{
		"Content-Type": "application/json",
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The student's refresh token is dead; a new login is required.
	err = studentSession.Refresh(t.Context())
	require.ErrorIs(t, err, authsdk.ErrSessionExpired)
}

// TestHealthProbes checks the liveness and readiness endpoints.
func TestHealthProbes(t *testing.T) {
	t.Parallel()
	baseURL := setupAuthService(t)

	client, err := authsdk.NewSDKClient(baseURL)
	require.NoError(t, err)

	live, err := client.Livez(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.Readyz(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
}
