package sqlite

import (
	"context"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
)

type auditRepo struct {
	db dbtx
}

func (r *auditRepo) AppendEntry(ctx context.Context, e domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO logs (id, actor_name, actor_id, action) VALUES (?, ?, ?, ?)`,
		e.ID, e.ActorName, e.ActorID, e.Action,
	)
	return err
}

func (r *auditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, actor_name, actor_id, action, created_at
		 FROM logs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorName, &e.ActorID, &e.Action, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
