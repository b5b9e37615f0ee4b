// Package service implements the authentication protocol: login, refresh
// with rotation and reuse detection, logout, and profile lookup.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
	"github.com/jnnzz/psits-auth/internal/auth/store"
	"github.com/jnnzz/psits-auth/pkg/cryptox"
	"github.com/jnnzz/psits-auth/pkg/idx"
	"github.com/jnnzz/psits-auth/pkg/jwtx"
	"github.com/jnnzz/psits-auth/pkg/slogx"
)

var (
	// ErrInvalidCredentials covers both unknown identifier and wrong
	// password so responses never reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrAccountSuspended = errors.New("account_suspended")
	ErrAccountDeleted   = errors.New("account_deleted")
	ErrAccountInactive  = errors.New("account_inactive")

	ErrMissingRefreshToken = errors.New("missing_refresh_token")

	// ErrAccountNoLongerActive means the principal behind a structurally
	// valid refresh token is gone or deactivated.
	ErrAccountNoLongerActive = errors.New("account_no_longer_active")

	// ErrRefreshReuse marks presentation of a superseded refresh token.
	// Detection revokes the entire session, not just the request.
	ErrRefreshReuse = errors.New("refresh_token_reuse")

	ErrNotFound = errors.New("principal_not_found")
)

// auditTimeout bounds the fire-and-forget audit write so a wedged database
// can't leak goroutines.
const auditTimeout = 5 * time.Second

type AuthService struct {
	Access  *jwtx.AccessCodec
	Refresh *jwtx.RefreshCodec
	Store   store.Store
	Logger  *slog.Logger
}

// principal is the tagged union produced by identifier resolution: exactly
// one of student/admin is populated, role says which.
type principal struct {
	role    domain.Role
	student domain.Student
	admin   domain.Admin
}

func (p principal) id() string {
	if p.role == domain.RoleAdmin {
		return p.admin.ID
	}
	return p.student.ID
}

func (p principal) identity() jwtx.Identity {
	profile := p.profile()
	return jwtx.Identity{
		Subject:  profile.ID,
		IDNumber: profile.IDNumber,
		Role:     string(profile.Role),
		Campus:   profile.Campus,
	}
}

func (p principal) profile() domain.Profile {
	if p.role == domain.RoleAdmin {
		return domain.AdminProfile(p.admin)
	}
	return domain.StudentProfile(p.student)
}

func (p principal) currentRefreshToken() *string {
	if p.role == domain.RoleAdmin {
		return p.admin.CurrentRefreshToken
	}
	return p.student.CurrentRefreshToken
}

// Login validates credentials and mints a fresh token pair. The stored
// refresh token is overwritten, silently ending any previous session for the
// principal: one live session per principal, by design.
func (s *AuthService) Login(ctx context.Context, idNumber, password string) (*domain.AuthResult, error) {
	p, err := s.resolvePrincipal(ctx, idNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.checkCredentials(ctx, p, password); err != nil {
		return nil, err
	}
	if err := checkLoginStatus(p); err != nil {
		return nil, err
	}

	result, err := s.mintSession(ctx, p)
	if err != nil {
		return nil, err
	}

	if p.role == domain.RoleAdmin {
		s.auditAsync(ctx, p.admin.Name, p.admin.ID, domain.AuditActionAdminLogin)
	}

	return result, nil
}

// RefreshSession rotates the session behind a presented refresh token. The
// presented token must match the stored one exactly; any mismatch is treated
// as theft and revokes the whole session.
func (s *AuthService) RefreshSession(ctx context.Context, rawToken string) (*domain.AuthResult, error) {
	if rawToken == "" {
		return nil, ErrMissingRefreshToken
	}

	claims, err := s.Refresh.Verify(rawToken)
	if err != nil {
		return nil, err
	}
	role := domain.Role(claims.Role)

	p, err := s.loadPrincipal(ctx, s.Store, claims.Subject, role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNoLongerActive
		}
		return nil, err
	}
	if !principalActive(p) {
		return nil, ErrAccountNoLongerActive
	}

	newRefresh, err := s.Refresh.Sign(p.identity())
	if err != nil {
		return nil, err
	}

	// The revocation on a detected reuse must COMMIT, so the reuse branches
	// return nil from the transaction and set this flag instead of an error.
	var reuseDetected bool

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		sess := sessionsFor(tx)

		// Re-read inside the transaction so the compare below sees the
		// latest committed value, not the pre-transaction snapshot.
		fresh, err := s.loadPrincipal(ctx, tx, claims.Subject, role)
		if err != nil {
			return err
		}

		stored := fresh.currentRefreshToken()
		if stored == nil || *stored != rawToken {
			// Superseded token presented: revoke everything so even the
			// newest legitimately issued token stops working.
			reuseDetected = true
			return sess.set(ctx, fresh.id(), role, nil)
		}

		if err := sess.rotate(ctx, fresh.id(), role, rawToken, newRefresh); err != nil {
			if errors.Is(err, store.ErrStale) {
				// A concurrent refresh rotated between our read and write.
				// The strict policy treats the loser as reuse.
				reuseDetected = true
				return sess.set(ctx, fresh.id(), role, nil)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNoLongerActive
		}
		return nil, err
	}
	if reuseDetected {
		slogx.FromContext(ctx).Warn("refresh token reuse detected, session revoked",
			"id_number", claims.IDNumber,
			"role", claims.Role,
		)
		return nil, ErrRefreshReuse
	}

	accessToken, err := s.Access.Sign(p.identity())
	if err != nil {
		return nil, err
	}

	profile := p.profile()
	return &domain.AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		User:         profile,
	}, nil
}

// Logout revokes the session behind the presented refresh token. It is
// best-effort: an absent, expired, or malformed token is ignored so logout
// always succeeds.
func (s *AuthService) Logout(ctx context.Context, rawToken string) {
	if rawToken == "" {
		return
	}

	claims, err := s.Refresh.Verify(rawToken)
	if err != nil {
		slogx.FromContext(ctx).Debug("unverifiable token at logout", "err", err)
		return
	}

	role := domain.Role(claims.Role)
	sess := sessions{students: s.Store.Students(), admins: s.Store.Admins()}
	if err := sess.set(ctx, claims.Subject, role, nil); err != nil {
		slogx.FromContext(ctx).Debug("could not revoke session at logout", "err", err)
	}
}

// Profile returns the current redacted projection for verified access-token
// claims, looked up fresh from storage.
func (s *AuthService) Profile(ctx context.Context, claims jwtx.Claims) (domain.Profile, error) {
	p, err := s.loadPrincipal(ctx, s.Store, claims.Subject, domain.Role(claims.Role))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, err
	}
	return p.profile(), nil
}

// RevokeSession force-logs-out the principal behind an identifier: its stored
// refresh token is nulled so the next refresh fails. Used by admin tooling.
func (s *AuthService) RevokeSession(ctx context.Context, actor jwtx.Claims, idNumber string) error {
	p, err := s.resolvePrincipal(ctx, idNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	sess := sessions{students: s.Store.Students(), admins: s.Store.Admins()}
	if err := sess.set(ctx, p.id(), p.role, nil); err != nil {
		return err
	}

	s.auditAsync(ctx, actor.IDNumber, actor.Subject, domain.AuditActionSessionRevoke)
	return nil
}

// resolvePrincipal maps a login identifier to the principal it denotes. The
// identifier format decides the table: identifiers carrying the admin marker
// resolve against admins, everything else against students.
func (s *AuthService) resolvePrincipal(ctx context.Context, idNumber string) (principal, error) {
	if domain.RoleForIDNumber(idNumber) == domain.RoleAdmin {
		admin, err := s.Store.Admins().GetAdminByIDNumber(ctx, idNumber)
		if err != nil {
			return principal{}, err
		}
		return principal{role: domain.RoleAdmin, admin: admin}, nil
	}

	student, err := s.Store.Students().GetStudentByIDNumber(ctx, idNumber)
	if err != nil {
		return principal{}, err
	}
	return principal{role: domain.RoleStudent, student: student}, nil
}

func (s *AuthService) loadPrincipal(
	ctx context.Context,
	st interface {
		Students() store.Students
		Admins() store.Admins
	},
	id string,
	role domain.Role,
) (principal, error) {
	if role == domain.RoleAdmin {
		admin, err := st.Admins().GetAdminByID(ctx, id)
		if err != nil {
			return principal{}, err
		}
		return principal{role: domain.RoleAdmin, admin: admin}, nil
	}

	student, err := st.Students().GetStudentByID(ctx, id)
	if err != nil {
		return principal{}, err
	}
	return principal{role: domain.RoleStudent, student: student}, nil
}

func (s *AuthService) checkCredentials(ctx context.Context, p principal, password string) error {
	hash := p.student.PasswordHash
	if p.role == domain.RoleAdmin {
		hash = p.admin.PasswordHash
	}

	if err := cryptox.VerifyPassword(password, hash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		slogx.FromContext(ctx).Error("password verification failed", "err", err)
		return ErrInvalidCredentials
	}
	return nil
}

func checkLoginStatus(p principal) error {
	if p.role == domain.RoleAdmin {
		if p.admin.Suspended() {
			return ErrAccountSuspended
		}
		if !p.admin.Active() {
			return ErrAccountInactive
		}
		return nil
	}

	if p.student.Status == domain.StudentStatusDeleted {
		return ErrAccountDeleted
	}
	if !p.student.Active() {
		return ErrAccountInactive
	}
	return nil
}

func principalActive(p principal) bool {
	if p.role == domain.RoleAdmin {
		return p.admin.Active()
	}
	return p.student.Active()
}

// mintSession signs a fresh token pair and persists the refresh token.
func (s *AuthService) mintSession(ctx context.Context, p principal) (*domain.AuthResult, error) {
	id := p.identity()

	accessToken, err := s.Access.Sign(id)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.Refresh.Sign(id)
	if err != nil {
		return nil, err
	}

	sess := sessions{students: s.Store.Students(), admins: s.Store.Admins()}
	if err := sess.set(ctx, p.id(), p.role, &refreshToken); err != nil {
		return nil, err
	}

	return &domain.AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         p.profile(),
	}, nil
}

// auditAsync appends an audit entry without blocking the caller. Failures are
// logged and discarded; auditing must never break the action it records.
func (s *AuthService) auditAsync(ctx context.Context, actorName, actorID, action string) {
	logger := slogx.FromContext(ctx)
	if s.Logger != nil {
		logger = s.Logger
	}

	go func() {
		auditCtx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()

		err := s.Store.AuditLog().AppendEntry(auditCtx, domain.AuditEntry{
			ID:        idx.New().String(),
			ActorName: actorName,
			ActorID:   actorID,
			Action:    action,
		})
		if err != nil {
			logger.Warn("audit log write failed", "action", action, "err", err)
		}
	}()
}
