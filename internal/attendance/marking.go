package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"smartattendance/internal/geo"
	"smartattendance/internal/identity"
	"smartattendance/internal/metrics"
	"smartattendance/internal/session"
)

// SessionVerifier validates a session token. *session.Registry satisfies it.
type SessionVerifier interface {
	Verify(ctx context.Context, id string) (session.Session, error)
}

// MarkRequest is a student's self-service submission.
type MarkRequest struct {
	SessionID string
	StudentID string
	Location  *geo.Point
	FaceImage string
}

// Marker turns self-service mark requests into ledger rows.
type Marker struct {
	sessions    SessionVerifier
	dir         identity.Directory
	ledger      Ledger
	signals     SignalPolicy
	classroomID int
	logger      *zap.Logger
}

// NewMarker wires a marker. A nil policy trusts all signals.
func NewMarker(sessions SessionVerifier, dir identity.Directory, ledger Ledger, signals SignalPolicy, classroomID int, logger *zap.Logger) *Marker {
	if signals == nil {
		signals = TrustAll{}
	}
	if classroomID <= 0 {
		classroomID = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Marker{
		sessions:    sessions,
		dir:         dir,
		ledger:      ledger,
		signals:     signals,
		classroomID: classroomID,
		logger:      logger,
	}
}

// Mark validates the student and session and appends a record. Repeated
// marks for the same session are kept.
func (m *Marker) Mark(ctx context.Context, req MarkRequest) (Record, error) {
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.StudentID) == "" {
		return Record{}, fmt.Errorf("%w: session_id and student_id required", ErrInvalidInput)
	}

	student, err := identity.Resolve(ctx, m.dir, req.StudentID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			metrics.MarkRejections.WithLabelValues("unknown_student").Inc()
			return Record{}, ErrStudentNotFound
		}
		return Record{}, fmt.Errorf("%w: resolve student: %w", ErrStorage, err)
	}

	sess, err := m.sessions.Verify(ctx, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			metrics.MarkRejections.WithLabelValues("unknown_session").Inc()
		case errors.Is(err, session.ErrExpired):
			metrics.MarkRejections.WithLabelValues("expired_session").Inc()
		}
		return Record{}, err
	}

	sig := m.signals.Evaluate(ctx, student.USN, req)
	rec, err := m.ledger.Append(ctx, Record{
		StudentUSN:    student.USN,
		SessionRef:    RealSession(sess.ID),
		ClassroomID:   m.classroomID,
		Subject:       sess.Subject,
		QRMatch:       sig.QR,
		LocationMatch: sig.Location,
		FaceMatch:     sig.Face,
	})
	if err != nil {
		return Record{}, fmt.Errorf("%w: append mark: %w", ErrStorage, err)
	}
	metrics.Marks.WithLabelValues("self").Inc()

	m.logger.Info("attendance marked",
		zap.Int64("attendance_id", rec.ID),
		zap.String("usn", rec.StudentUSN),
		zap.String("session_id", sess.ID),
		zap.Bool("qr", rec.QRMatch),
		zap.Bool("location", rec.LocationMatch),
		zap.Bool("face", rec.FaceMatch))
	return rec, nil
}
