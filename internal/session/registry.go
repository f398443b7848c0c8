package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smartattendance/internal/metrics"
)

// DefaultTTL is how long a freshly created session accepts marks.
const DefaultTTL = 10 * time.Minute

// Registry owns the single globally active attendance session.
// No other component reads or writes session rows.
type Registry struct {
	repo   Repository
	cache  Cache
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
	logger *zap.Logger

	// createMu serializes Create within this process; the repository
	// serializes across processes.
	createMu sync.Mutex
}

// Option customizes a Registry.
type Option func(*Registry)

// WithCache serves Active from c when it holds a live session.
func WithCache(c Cache) Option {
	return func(r *Registry) { r.cache = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator replaces the uuid token generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

// NewRegistry creates a registry issuing sessions that live for ttl.
func NewRegistry(repo Repository, ttl time.Duration, logger *zap.Logger, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		repo:   repo,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create opens a new session and deactivates every other one.
func (r *Registry) Create(ctx context.Context, subject, teacherID string) (Session, error) {
	subject = strings.TrimSpace(subject)
	teacherID = strings.TrimSpace(teacherID)
	if subject == "" || teacherID == "" {
		return Session{}, fmt.Errorf("%w: subject and teacher_id required", ErrInvalidInput)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	now := r.now()
	if err := r.sweep(ctx, now); err != nil {
		return Session{}, err
	}

	s := Session{
		ID:        r.newID(),
		Subject:   subject,
		TeacherID: teacherID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
		Active:    true,
	}
	if err := r.repo.ReplaceActive(ctx, s); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	metrics.SessionsCreated.Inc()

	if r.cache != nil {
		if err := r.cache.Set(ctx, s); err != nil {
			r.logger.Warn("cache active session", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	r.logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("subject", s.Subject),
		zap.String("teacher_id", s.TeacherID),
		zap.Time("expires_at", s.ExpiresAt))
	return s, nil
}

// Stop deactivates a session. Stopping an inactive session is not an error.
func (r *Registry) Stop(ctx context.Context, id string) error {
	if err := r.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("stop session: %w", err)
	}
	if r.cache != nil {
		if err := r.cache.Clear(ctx); err != nil {
			r.logger.Warn("clear active session cache", zap.String("session_id", id), zap.Error(err))
		}
	}
	r.logger.Info("session stopped", zap.String("session_id", id))
	return nil
}

// Verify returns the session when it is active and unexpired.
func (r *Registry) Verify(ctx context.Context, id string) (Session, error) {
	s, err := r.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("verify session: %w", err)
	}
	if !s.Live(r.now()) {
		return s, ErrExpired
	}
	return s, nil
}

// Active sweeps expired sessions and returns the newest live one, or nil.
func (r *Registry) Active(ctx context.Context) (*Session, error) {
	now := r.now()
	if r.cache != nil {
		cached, err := r.cache.Get(ctx)
		if err != nil {
			r.logger.Warn("read active session cache", zap.Error(err))
		} else if cached != nil && cached.Live(now) {
			// The entry can be stale if a Stop or Create raced a refresh,
			// so the stored row decides.
			cur, err := r.repo.Get(ctx, cached.ID)
			if err == nil && cur.Live(now) {
				return &cur, nil
			}
		}
	}

	if err := r.sweep(ctx, now); err != nil {
		return nil, err
	}
	s, err := r.repo.LatestActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("active session: %w", err)
	}

	if r.cache != nil {
		var cerr error
		if s != nil {
			cerr = r.cache.Set(ctx, *s)
		} else {
			cerr = r.cache.Clear(ctx)
		}
		if cerr != nil {
			r.logger.Warn("refresh active session cache", zap.Error(cerr))
		}
	}
	return s, nil
}

func (r *Registry) sweep(ctx context.Context, now time.Time) error {
	n, err := r.repo.ExpireBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("expire sessions: %w", err)
	}
	if n > 0 {
		metrics.SessionsExpired.Add(float64(n))
		r.logger.Debug("expired sessions swept", zap.Int64("count", n))
	}
	return nil
}
