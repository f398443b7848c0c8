package attendance

import (
	"context"
	"errors"
	"fmt"

	"smartattendance/internal/identity"
)

// DefaultTotalStudents is the class size used for session percentages.
const DefaultTotalStudents = 30

// History is a student's full attendance record.
type History struct {
	TotalRecords int
	Attended     int
	Records      []Record
}

// SessionEntry is a ledger row joined with the student's name.
type SessionEntry struct {
	Record
	StudentName string
}

// SessionView summarizes the rows recorded under one session ref.
type SessionView struct {
	Records       []SessionEntry
	TotalStudents int
	PresentCount  int
	Percentage    float64
}

// Reporter answers read-only questions about the ledger.
type Reporter struct {
	dir           identity.Directory
	ledger        Ledger
	totalStudents int
}

// NewReporter wires a reporter. totalStudents is the fixed denominator for
// session percentages.
func NewReporter(dir identity.Directory, ledger Ledger, totalStudents int) *Reporter {
	if totalStudents < 0 {
		totalStudents = DefaultTotalStudents
	}
	return &Reporter{dir: dir, ledger: ledger, totalStudents: totalStudents}
}

// History returns every record for the student, newest first. An unknown
// student has an empty history.
func (r *Reporter) History(ctx context.Context, studentID string) (History, error) {
	student, err := identity.Resolve(ctx, r.dir, studentID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return History{Records: []Record{}}, nil
		}
		return History{}, fmt.Errorf("%w: resolve student: %w", ErrStorage, err)
	}
	recs, err := r.ledger.ByStudent(ctx, student.USN)
	if err != nil {
		return History{}, fmt.Errorf("%w: list history: %w", ErrStorage, err)
	}
	h := History{TotalRecords: len(recs), Records: recs}
	if h.Records == nil {
		h.Records = []Record{}
	}
	for _, rec := range recs {
		if rec.Attended() {
			h.Attended++
		}
	}
	return h, nil
}

// SessionView returns the rows stored under exactly ref. Rows whose student
// no longer resolves are left out.
func (r *Reporter) SessionView(ctx context.Context, ref string) (SessionView, error) {
	recs, err := r.ledger.BySessionRef(ctx, ref)
	if err != nil {
		return SessionView{}, fmt.Errorf("%w: list session: %w", ErrStorage, err)
	}

	names := make(map[string]string)
	entries := make([]SessionEntry, 0, len(recs))
	for _, rec := range recs {
		name, ok := names[rec.StudentUSN]
		if !ok {
			id, err := r.dir.ByUSN(ctx, rec.StudentUSN)
			if err != nil {
				if errors.Is(err, identity.ErrNotFound) {
					continue
				}
				return SessionView{}, fmt.Errorf("%w: lookup %s: %w", ErrStorage, rec.StudentUSN, err)
			}
			name = id.Name
			names[rec.StudentUSN] = name
		}
		entries = append(entries, SessionEntry{Record: rec, StudentName: name})
	}

	v := SessionView{
		Records:       entries,
		TotalStudents: r.totalStudents,
		PresentCount:  len(entries),
	}
	if v.TotalStudents > 0 {
		v.Percentage = float64(v.PresentCount) / float64(v.TotalStudents) * 100
	}
	return v, nil
}

// Students lists every non-teacher identity.
func (r *Reporter) Students(ctx context.Context) ([]identity.Identity, error) {
	students, err := r.dir.Students(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list students: %w", ErrStorage, err)
	}
	if students == nil {
		students = []identity.Identity{}
	}
	return students, nil
}
