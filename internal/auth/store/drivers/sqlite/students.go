package sqlite

import (
	"context"
	"database/sql"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
	"github.com/jnnzz/psits-auth/internal/auth/store"
)

type studentsRepo struct {
	db dbtx
}

const studentColumns = `id, id_number, password_hash, first_name, middle_name, last_name,
	email, course, year, campus, status, membership_status, current_refresh_token,
	created_at, updated_at`

func (r *studentsRepo) GetStudentByID(ctx context.Context, id string) (domain.Student, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	return scanStudent(row)
}

func (r *studentsRepo) GetStudentByIDNumber(
	ctx context.Context,
	idNumber string,
) (domain.Student, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id_number = ?`, idNumber)
	return scanStudent(row)
}

func (r *studentsRepo) CreateStudent(ctx context.Context, s domain.Student) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO students (id, id_number, password_hash, first_name, middle_name,
			last_name, email, course, year, campus, status, membership_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.IDNumber, s.PasswordHash, s.FirstName, s.MiddleName,
		s.LastName, s.Email, s.Course, s.Year, s.Campus, s.Status, s.MembershipStatus,
	)
	return err
}

func (r *studentsRepo) SetRefreshToken(ctx context.Context, id string, token *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE students
		 SET current_refresh_token = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		mapOptionalString(token), id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, store.ErrNotFound)
}

func (r *studentsRepo) RotateRefreshToken(ctx context.Context, id, current, next string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE students
		 SET current_refresh_token = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND current_refresh_token = ?`,
		next, id, current,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, store.ErrStale)
}

func (r *studentsRepo) UpdateStudentStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE students SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, store.ErrNotFound)
}

func scanStudent(row *sql.Row) (domain.Student, error) {
	var s domain.Student
	var refreshToken sql.NullString

	err := row.Scan(
		&s.ID, &s.IDNumber, &s.PasswordHash, &s.FirstName, &s.MiddleName, &s.LastName,
		&s.Email, &s.Course, &s.Year, &s.Campus, &s.Status, &s.MembershipStatus,
		&refreshToken, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.Student{}, mapNotFound(err)
	}

	s.CurrentRefreshToken = mapNullString(refreshToken)
	return s, nil
}

func requireRowAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
