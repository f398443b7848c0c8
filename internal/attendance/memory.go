package attendance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryLedger keeps records in process memory.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []Record
	nextID  int64
	now     func() time.Time
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{nextID: 1, now: func() time.Time { return time.Now().UTC() }}
}

func (l *MemoryLedger) Append(ctx context.Context, rec Record) (Record, error) {
	out, err := l.AppendBatch(ctx, []Record{rec})
	if err != nil {
		return Record{}, err
	}
	return out[0], nil
}

func (l *MemoryLedger) AppendBatch(ctx context.Context, recs []Record) ([]Record, error) {
	for _, rec := range recs {
		if rec.StudentUSN == "" || rec.SessionRef.Token == "" {
			return nil, errors.New("record needs a student and a session ref")
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		rec.ID = l.nextID
		l.nextID++
		if rec.Timestamp.IsZero() {
			rec.Timestamp = l.now()
		}
		l.records = append(l.records, rec)
		out = append(out, rec)
	}
	return out, nil
}

func (l *MemoryLedger) ByStudent(ctx context.Context, usn string) ([]Record, error) {
	return l.filter(func(r Record) bool { return r.StudentUSN == usn }), nil
}

func (l *MemoryLedger) BySessionRef(ctx context.Context, ref string) ([]Record, error) {
	return l.filter(func(r Record) bool { return r.SessionRef.Token == ref }), nil
}

// Len returns the number of stored records.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *MemoryLedger) filter(keep func(Record) bool) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Record
	for _, r := range l.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].Timestamp.Equal(recs[j].Timestamp) {
			return recs[i].Timestamp.After(recs[j].Timestamp)
		}
		return recs[i].ID > recs[j].ID
	})
}
