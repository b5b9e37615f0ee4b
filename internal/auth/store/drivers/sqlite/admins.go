package sqlite

import (
	"context"
	"database/sql"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
	"github.com/jnnzz/psits-auth/internal/auth/store"
)

type adminsRepo struct {
	db dbtx
}

const adminColumns = `id, id_number, password_hash, name, email, course, year, campus,
	position, access, status, current_refresh_token, created_at, updated_at`

func (r *adminsRepo) GetAdminByID(ctx context.Context, id string) (domain.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
	return scanAdmin(row)
}

func (r *adminsRepo) GetAdminByIDNumber(
	ctx context.Context,
	idNumber string,
) (domain.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id_number = ?`, idNumber)
	return scanAdmin(row)
}

func (r *adminsRepo) CreateAdmin(ctx context.Context, a domain.Admin) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (id, id_number, password_hash, name, email, course, year,
			campus, position, access, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.IDNumber, a.PasswordHash, a.Name, a.Email, a.Course, a.Year,
		a.Campus, a.Position, a.Access, a.Status,
	)
	return err
}

func (r *adminsRepo) SetRefreshToken(ctx context.Context, id string, token *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admins
		 SET current_refresh_token = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		mapOptionalString(token), id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, store.ErrNotFound)
}

func (r *adminsRepo) RotateRefreshToken(ctx context.Context, id, current, next string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admins
		 SET current_refresh_token = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND current_refresh_token = ?`,
		next, id, current,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, store.ErrStale)
}

func (r *adminsRepo) UpdateAdminStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admins SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, store.ErrNotFound)
}

func scanAdmin(row *sql.Row) (domain.Admin, error) {
	var a domain.Admin
	var refreshToken sql.NullString

	err := row.Scan(
		&a.ID, &a.IDNumber, &a.PasswordHash, &a.Name, &a.Email, &a.Course, &a.Year,
		&a.Campus, &a.Position, &a.Access, &a.Status,
		&refreshToken, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Admin{}, mapNotFound(err)
	}

	a.CurrentRefreshToken = mapNullString(refreshToken)
	return a, nil
}
