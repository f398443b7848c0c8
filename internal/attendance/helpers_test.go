package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"smartattendance/internal/identity"
	"smartattendance/internal/session"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	clock    *testClock
	registry *session.Registry
	dir      *identity.MemoryDirectory
	ledger   *MemoryLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	dir := identity.NewMemoryDirectory()
	dir.Put(identity.Identity{USN: "U1", Name: "Asha"}, "")
	dir.Put(identity.Identity{USN: "U2", Name: "Ravi"}, "")
	dir.Put(identity.Identity{USN: "T1", Name: "Prof Rao", IsTeacher: true}, "")

	ledger := NewMemoryLedger()
	ledger.now = clock.Now
	return &fixture{
		clock:    clock,
		registry: session.NewRegistry(session.NewMemoryRepository(), session.DefaultTTL, nil, session.WithClock(clock.Now)),
		dir:      dir,
		ledger:   ledger,
	}
}

func (f *fixture) openSession(t *testing.T, subject string) session.Session {
	t.Helper()
	s, err := f.registry.Create(context.Background(), subject, "T1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}
