package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a session token is unknown.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when a session exists but is inactive or past its expiry.
	ErrExpired = errors.New("session expired")
	// ErrInvalidInput is returned when required fields are missing.
	ErrInvalidInput = errors.New("invalid session input")
)

// Session is a time-boxed attendance window opened by a teacher.
type Session struct {
	ID        string    `json:"session_id"`
	Subject   string    `json:"subject"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// Live reports whether the session can still accept marks at now.
func (s Session) Live(now time.Time) bool {
	return s.Active && !s.ExpiresAt.Before(now)
}

// Repository persists sessions. Implementations must make ReplaceActive
// atomic and serialized against concurrent callers.
type Repository interface {
	// ReplaceActive deactivates every active session and inserts s.
	ReplaceActive(ctx context.Context, s Session) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Session, error)
	// Deactivate returns ErrNotFound for unknown ids.
	Deactivate(ctx context.Context, id string) error
	// ExpireBefore deactivates active sessions whose expiry is before now.
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
	// LatestActive returns the newest active session not expired at now, or nil.
	LatestActive(ctx context.Context, now time.Time) (*Session, error)
}

// Cache holds the currently active session for fast polling.
type Cache interface {
	Get(ctx context.Context) (*Session, error)
	Set(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
