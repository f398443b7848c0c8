package identity

import (
	"context"
	"sort"
	"sync"
)

// MemoryDirectory is an in-process Directory for the memory backend and tests.
type MemoryDirectory struct {
	mu       sync.RWMutex
	byUSN    map[string]Identity
	hashes   map[string]string
	subjects map[string][]string
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byUSN:    make(map[string]Identity),
		hashes:   make(map[string]string),
		subjects: make(map[string][]string),
	}
}

// Put adds or replaces an identity with its password hash.
func (d *MemoryDirectory) Put(id Identity, passwordHash string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byUSN[id.USN] = id
	d.hashes[id.USN] = passwordHash
}

// SetSubjects records the subjects a teacher takes.
func (d *MemoryDirectory) SetSubjects(usn string, subjects []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subjects[usn] = append([]string(nil), subjects...)
}

func (d *MemoryDirectory) ByUSN(ctx context.Context, usn string) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byUSN[usn]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return id, nil
}

func (d *MemoryDirectory) ByName(ctx context.Context, name string) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	// Lowest USN wins when names collide, to stay deterministic.
	var (
		found Identity
		ok    bool
	)
	for _, id := range d.byUSN {
		if id.Name == name && (!ok || id.USN < found.USN) {
			found, ok = id, true
		}
	}
	if !ok {
		return Identity{}, ErrNotFound
	}
	return found, nil
}

func (d *MemoryDirectory) Students(ctx context.Context) ([]Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Identity
	for _, id := range d.byUSN {
		if !id.IsTeacher {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].USN < out[j].USN })
	return out, nil
}

func (d *MemoryDirectory) PasswordHash(ctx context.Context, usn string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.hashes[usn]
	if !ok {
		return "", ErrNotFound
	}
	return h, nil
}

func (d *MemoryDirectory) TeacherSubjects(ctx context.Context, usn string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byUSN[usn]
	if !ok || !id.IsTeacher {
		return nil, ErrNotFound
	}
	return append([]string{}, d.subjects[usn]...), nil
}
