package identity

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresDirectory reads identities from the users table.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a directory.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const selectIdentity = `SELECT usn, name, COALESCE(email, ''), is_teacher, COALESCE(photo_path, '') FROM users`

func (d *PostgresDirectory) ByUSN(ctx context.Context, usn string) (Identity, error) {
	return d.one(ctx, selectIdentity+` WHERE usn = $1`, usn)
}

func (d *PostgresDirectory) ByName(ctx context.Context, name string) (Identity, error) {
	return d.one(ctx, selectIdentity+` WHERE name = $1 ORDER BY usn LIMIT 1`, name)
}

func (d *PostgresDirectory) Students(ctx context.Context) ([]Identity, error) {
	rows, err := d.db.QueryContext(ctx, selectIdentity+` WHERE NOT is_teacher ORDER BY usn`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		var id Identity
		if err := rows.Scan(&id.USN, &id.Name, &id.Email, &id.IsTeacher, &id.PhotoPath); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (d *PostgresDirectory) PasswordHash(ctx context.Context, usn string) (string, error) {
	var hash string
	err := d.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE usn = $1`, usn).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return hash, err
}

func (d *PostgresDirectory) TeacherSubjects(ctx context.Context, usn string) ([]string, error) {
	id, err := d.ByUSN(ctx, usn)
	if err != nil {
		return nil, err
	}
	if !id.IsTeacher {
		return nil, ErrNotFound
	}
	rows, err := d.db.QueryContext(ctx, `SELECT subject FROM teacher_subjects WHERE teacher_usn = $1 ORDER BY subject`, usn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (d *PostgresDirectory) one(ctx context.Context, query string, arg string) (Identity, error) {
	var id Identity
	err := d.db.QueryRowContext(ctx, query, arg).Scan(&id.USN, &id.Name, &id.Email, &id.IsTeacher, &id.PhotoPath)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, err
	}
	return id, nil
}
