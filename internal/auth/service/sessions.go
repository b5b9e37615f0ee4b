package service

import (
	"context"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
	"github.com/jnnzz/psits-auth/internal/auth/store"
)

// sessions is the single point of contact with principal storage for refresh
// token state. It dispatches on role so the protocol code never touches the
// two principal tables directly.
type sessions struct {
	students store.Students
	admins   store.Admins
}

func sessionsFor(tx store.Tx) sessions {
	return sessions{students: tx.Students(), admins: tx.Admins()}
}

// set overwrites the stored refresh token; nil revokes the session.
func (s sessions) set(ctx context.Context, id string, role domain.Role, token *string) error {
	if role == domain.RoleAdmin {
		return s.admins.SetRefreshToken(ctx, id, token)
	}
	return s.students.SetRefreshToken(ctx, id, token)
}

// rotate swaps current for next only if current is still the stored value.
// Returns store.ErrStale when another rotation won the race.
func (s sessions) rotate(ctx context.Context, id string, role domain.Role, current, next string) error {
	if role == domain.RoleAdmin {
		return s.admins.RotateRefreshToken(ctx, id, current, next)
	}
	return s.students.RotateRefreshToken(ctx, id, current, next)
}
