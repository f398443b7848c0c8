package attendance

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrStudentNotFound is returned when the student identifier matches no identity.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidInput is returned when required request fields are missing.
	ErrInvalidInput = errors.New("invalid attendance input")
	// ErrStorage wraps unexpected persistence failures.
	ErrStorage = errors.New("attendance storage failure")
)

// RefKind tells which kind of session a record belongs to.
type RefKind string

const (
	RefSession RefKind = "session"
	RefManual  RefKind = "manual"
)

// SessionRef groups a record under either a real session token or a
// synthetic label for a teacher's manual batch. Its string form is what is
// stored and queried.
type SessionRef struct {
	Kind    RefKind
	Token   string
	Teacher string
	Subject string
}

// RealSession refers to a session issued by the registry.
func RealSession(token string) SessionRef {
	return SessionRef{Kind: RefSession, Token: token}
}

// ManualBatch refers to records a teacher inserted by hand. It does not
// correspond to any registry session.
func ManualBatch(teacher, subject string) SessionRef {
	return SessionRef{
		Kind:    RefManual,
		Token:   "manual-" + teacher + "-" + strings.ReplaceAll(subject, " ", "_"),
		Teacher: teacher,
		Subject: subject,
	}
}

func (r SessionRef) String() string { return r.Token }

// Manual reports whether the ref is a teacher batch label.
func (r SessionRef) Manual() bool { return r.Kind == RefManual }

// Record is one immutable ledger row.
type Record struct {
	ID              int64
	StudentUSN      string
	SessionRef      SessionRef
	ClassroomID     int
	Subject         string
	QRMatch         bool
	LocationMatch   bool
	FaceMatch       bool
	MarkedByTeacher bool
	Timestamp       time.Time
}

// Attended reports whether the record counts toward a student's attendance.
// Teacher-marked rows only count when a signal matched, and manual marking
// never sets one, so they are excluded today.
func (r Record) Attended() bool {
	return !r.MarkedByTeacher || r.QRMatch || r.LocationMatch || r.FaceMatch
}
