package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smartattendance/internal/store"
)

// createLockKey is the advisory lock that serializes ReplaceActive across
// API instances sharing one database.
const createLockKey int64 = 0x61747464 // "attd"

// PostgresRepository persists sessions in the active_sessions table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ReplaceActive takes a transaction-scoped advisory lock, deactivates every
// active row and inserts s before releasing it on commit.
func (r *PostgresRepository) ReplaceActive(ctx context.Context, s Session) error {
	return store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, createLockKey); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE active_sessions SET active = FALSE WHERE active`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO active_sessions (session_id, subject, teacher_id, created_at, expires_at, active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
		`, s.ID, s.Subject, s.TeacherID, s.CreatedAt, s.ExpiresAt)
		return err
	})
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT session_id, subject, teacher_id, created_at, expires_at, active
		FROM active_sessions WHERE session_id = $1
	`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE active_sessions SET active = FALSE WHERE session_id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE active_sessions SET active = FALSE
		WHERE active AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) LatestActive(ctx context.Context, now time.Time) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT session_id, subject, teacher_id, created_at, expires_at, active
		FROM active_sessions
		WHERE active AND expires_at >= $1
		ORDER BY created_at DESC
		LIMIT 1
	`, now)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func scanSession(row *sql.Row) (Session, error) {
	var s Session
	if err := row.Scan(&s.ID, &s.Subject, &s.TeacherID, &s.CreatedAt, &s.ExpiresAt, &s.Active); err != nil {
		return Session{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return s, nil
}
