package authsdk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Session is an authenticated session. Concurrent requests that hit an
// expired access token share a single refresh call instead of racing each
// other; with rotation on the server, a burst of parallel refreshes from the
// same client would otherwise look like token theft.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	accessToken string
	user        UserProfile

	refreshGroup singleflight.Group
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// User returns the profile captured at login or last refresh.
func (s *Session) User() UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Refresh exchanges the refresh cookie for a new token pair. Concurrent
// callers are collapsed into one wire request; all of them observe the same
// outcome.
func (s *Session) Refresh(ctx context.Context) error {
	_, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		return nil, s.refreshOnce(ctx)
	})
	return err
}

func (s *Session) refreshOnce(ctx context.Context) error {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v2/auth/refresh", nil, nil)
	if err != nil {
		return err
	}

	var refreshResp LoginResponse
	if err := decodeJSON(resp, &refreshResp, http.StatusOK); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return ErrSessionExpired
		}
		return err
	}

	s.mu.Lock()
	s.accessToken = refreshResp.AccessToken
	s.user = refreshResp.User
	s.mu.Unlock()
	return nil
}

// Me fetches the caller's fresh profile from the service.
func (s *Session) Me(ctx context.Context) (*UserProfile, error) {
	resp, err := s.Do(ctx, http.MethodGet, "/v2/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var me meResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = me.User
	s.mu.Unlock()
	return &me.User, nil
}

// Logout ends the session on the server and drops the local access token.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v2/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	if err := decodeJSON(resp, nil, http.StatusOK); err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
	return nil
}

// Do performs an authenticated request. On a 401 it refreshes once and
// retries; a second 401 surfaces as ErrSessionExpired. The body is a byte
// slice rather than a reader so the retry can replay it.
func (s *Session) Do(
	ctx context.Context,
	method, path string,
	body []byte,
	headers map[string]string,
) (*http.Response, error) {
	resp, err := s.doAuthRequest(ctx, method, path, body, headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}

	resp, err = s.doAuthRequest(ctx, method, path, body, headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, ErrSessionExpired
	}
	return resp, nil
}

func (s *Session) doAuthRequest(
	ctx context.Context,
	method, path string,
	body []byte,
	headers map[string]string,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	h := map[string]string{"Authorization": "Bearer " + s.AccessToken()}
	for key, value := range headers {
		h[key] = value
	}

	return s.client.doRequest(ctx, method, path, reader, h)
}
