// Package http exposes the authentication protocol over HTTP and hosts the
// DB-checked authorization middleware layers.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
	"github.com/jnnzz/psits-auth/internal/auth/service"
	"github.com/jnnzz/psits-auth/pkg/httpx"
	"github.com/jnnzz/psits-auth/pkg/jwtx"
	"github.com/jnnzz/psits-auth/pkg/slogx"
)

// Handlers bundles the auth endpoints with their cookie policy.
type Handlers struct {
	Service *service.AuthService
	Cookie  httpx.RefreshCookie
}

type loginRequest struct {
	IDNumber string `json:"id_number"`
	Password string `json:"password"`
}

type authResponse struct {
	Message     string         `json:"message"`
	AccessToken string         `json:"accessToken"`
	User        profilePayload `json:"user"`
}

type profilePayload struct {
	ID               string `json:"id"`
	IDNumber         string `json:"idNumber"`
	Role             string `json:"role"`
	Campus           string `json:"campus"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	Course           string `json:"course,omitempty"`
	Year             string `json:"year,omitempty"`
	MembershipStatus string `json:"membershipStatus,omitempty"`
	Position         string `json:"position,omitempty"`
	Access           string `json:"access,omitempty"`
}

func toProfilePayload(p domain.Profile) profilePayload {
	return profilePayload{
		ID:               p.ID,
		IDNumber:         p.IDNumber,
		Role:             string(p.Role),
		Campus:           p.Campus,
		Name:             p.Name,
		Email:            p.Email,
		Course:           p.Course,
		Year:             p.Year,
		MembershipStatus: p.MembershipStatus,
		Position:         p.Position,
		Access:           p.Access,
	}
}

// handleLogin authenticates credentials and establishes a session. The access
// token travels in the response body, the refresh token only in the httpOnly
// cookie.
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IDNumber == "" || req.Password == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, "ID number and password are required")
		return
	}

	result, err := h.Service.Login(r.Context(), req.IDNumber, req.Password)
	if err != nil {
		h.writeLoginError(w, r, err)
		return
	}

	h.Cookie.Set(w, result.RefreshToken)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authResponse{
		Message:     "Login successful",
		AccessToken: result.AccessToken,
		User:        toProfilePayload(result.User),
	})
}

func (h *Handlers) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid ID number or password")
	case errors.Is(err, service.ErrAccountSuspended):
		httpx.WriteMessage(w, http.StatusForbidden, "Account is suspended")
	case errors.Is(err, service.ErrAccountDeleted):
		httpx.WriteMessage(w, http.StatusForbidden, "Account has been deleted")
	case errors.Is(err, service.ErrAccountInactive):
		httpx.WriteMessage(w, http.StatusForbidden, "Account is not active")
	default:
		slogx.FromContext(r.Context()).Error("login failed", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Login failed")
	}
}

// handleRefresh rotates the session behind the refresh cookie. On any token
// problem the cookie is cleared so clients stop replaying a dead token.
func (h *Handlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw := h.Cookie.FromRequest(r)
	if raw == "" {
		httpx.WriteMessage(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	result, err := h.Service.RefreshSession(r.Context(), raw)
	if err != nil {
		h.Cookie.Clear(w)
		h.writeRefreshError(w, r, err)
		return
	}

	h.Cookie.Set(w, result.RefreshToken)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authResponse{
		Message:     "Token refreshed",
		AccessToken: result.AccessToken,
		User:        toProfilePayload(result.User),
	})
}

func (h *Handlers) writeRefreshError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrRefreshReuse):
		httpx.WriteMessage(w, http.StatusUnauthorized, "Session revoked")
	case errors.Is(err, service.ErrAccountNoLongerActive):
		httpx.WriteMessage(w, http.StatusForbidden, "Account no longer active")
	case errors.Is(err, jwtx.ErrExpired):
		httpx.WriteMessage(w, http.StatusUnauthorized, "Refresh token expired")
	case errors.Is(err, jwtx.ErrInvalid), errors.Is(err, jwtx.ErrWrongType):
		httpx.WriteMessage(w, http.StatusUnauthorized, "Invalid refresh token")
	default:
		slogx.FromContext(r.Context()).Error("refresh failed", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Refresh failed")
	}
}

// handleLogout ends the session and clears the cookie. Always succeeds.
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.Service.Logout(r.Context(), h.Cookie.FromRequest(r))
	h.Cookie.Clear(w)
	httpx.WriteMessage(w, http.StatusOK, "Logged out")
}

// handleMe returns the caller's fresh profile. Claims come from the
// authentication middleware; the profile itself is read from storage.
func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.Service.Profile(r.Context(), claims)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			httpx.WriteMessage(w, http.StatusNotFound, "Account not found")
			return
		}
		slogx.FromContext(r.Context()).Error("profile lookup failed", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Could not load profile")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, struct {
		User profilePayload `json:"user"`
	}{User: toProfilePayload(profile)})
}

type revokeRequest struct {
	IDNumber string `json:"id_number"`
}

// handleRevoke force-logs-out the principal named in the body. Admin only;
// the router stacks the DB-checked auth, role, and access-level layers in
// front of it.
func (h *Handlers) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDNumber == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, "ID number is required")
		return
	}

	claims, _ := httpx.ClaimsFromContext(r.Context())
	if err := h.Service.RevokeSession(r.Context(), claims, req.IDNumber); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			httpx.WriteMessage(w, http.StatusNotFound, "Account not found")
			return
		}
		slogx.FromContext(r.Context()).Error("session revoke failed", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Could not revoke session")
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Session revoked")
}
