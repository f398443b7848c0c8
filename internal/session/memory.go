package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps sessions in process memory. It is used by the
// memory store backend and by tests.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]Session
	order    []string
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]Session)}
}

func (m *MemoryRepository) ReplaceActive(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.sessions {
		if existing.Active {
			existing.Active = false
			m.sessions[id] = existing
		}
	}
	s.Active = true
	if _, ok := m.sessions[s.ID]; !ok {
		m.order = append(m.order, s.ID)
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryRepository) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Active = false
	m.sessions[id] = s
	return nil
}

func (m *MemoryRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Active && s.ExpiresAt.Before(now) {
			s.Active = false
			m.sessions[id] = s
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) LatestActive(ctx context.Context, now time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// order is insertion order, so the last live entry is the newest.
	for i := len(m.order) - 1; i >= 0; i-- {
		s := m.sessions[m.order[i]]
		if s.Active && !s.ExpiresAt.Before(now) {
			return &s, nil
		}
	}
	return nil, nil
}

// CountActive returns how many sessions are flagged active.
func (m *MemoryRepository) CountActive() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.Active {
			n++
		}
	}
	return n
}
