// Package store defines the data access interfaces for principal records and
// the audit log. Concrete drivers live under drivers/.
package store

import (
	"context"
	"errors"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrStale reports a conditional refresh-token rotation that lost the
	// race: the stored value no longer matches the expected one.
	ErrStale = errors.New("store: stale refresh token")
)

// Store is the root data access interface. It exposes sub-repositories to
// keep concerns tidy and testable.
type Store interface {
	Students() Students
	Admins() Admins
	AuditLog() AuditLog

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Refresh-token
	// rotation runs through this so the read-compare-write is atomic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying database handle.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store.
type Tx interface {
	Students() Students
	Admins() Admins
	AuditLog() AuditLog
}

type Students interface {
	// GetStudentByID returns a student by primary id.
	GetStudentByID(ctx context.Context, id string) (domain.Student, error)

	// GetStudentByIDNumber resolves the external login identifier.
	GetStudentByIDNumber(ctx context.Context, idNumber string) (domain.Student, error)

	// CreateStudent inserts a new student (id provided by the app via ULID).
	CreateStudent(ctx context.Context, s domain.Student) error

	// SetRefreshToken overwrites the stored refresh token. nil revokes the
	// session.
	SetRefreshToken(ctx context.Context, id string, token *string) error

	// RotateRefreshToken swaps current for next only if the stored value
	// still equals current; returns ErrStale otherwise.
	RotateRefreshToken(ctx context.Context, id, current, next string) error

	// UpdateStudentStatus flips the activation flag ("True" / "False").
	UpdateStudentStatus(ctx context.Context, id, status string) error
}

type Admins interface {
	GetAdminByID(ctx context.Context, id string) (domain.Admin, error)
	GetAdminByIDNumber(ctx context.Context, idNumber string) (domain.Admin, error)
	CreateAdmin(ctx context.Context, a domain.Admin) error
	SetRefreshToken(ctx context.Context, id string, token *string) error
	RotateRefreshToken(ctx context.Context, id, current, next string) error
	UpdateAdminStatus(ctx context.Context, id, status string) error
}

type AuditLog interface {
	// AppendEntry records an admin action.
	AppendEntry(ctx context.Context, e domain.AuditEntry) error

	// ListRecent returns the newest entries first, for ops tooling.
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
