package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"smartattendance/internal/identity"
	"smartattendance/internal/metrics"
)

// ItemStatus is the per-USN outcome of a manual marking batch.
type ItemStatus string

const (
	ItemMarked  ItemStatus = "marked"
	ItemSkipped ItemStatus = "skipped"
)

// ItemResult reports what happened to one USN in a batch.
type ItemResult struct {
	USN    string     `json:"usn"`
	Status ItemStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// ManualMarkRequest is a teacher's bulk marking request.
type ManualMarkRequest struct {
	Teacher     string
	Subject     string
	USNs        []string
	ClassroomID int
}

// ManualMarkResult lists the USNs written and the outcome of every input.
type ManualMarkResult struct {
	Marked    []string
	SessionID string
	Results   []ItemResult
}

// Overrider inserts teacher-marked records without consulting the session registry.
type Overrider struct {
	dir                identity.Directory
	ledger             Ledger
	defaultClassroomID int
	logger             *zap.Logger
}

// NewOverrider wires an overrider.
func NewOverrider(dir identity.Directory, ledger Ledger, defaultClassroomID int, logger *zap.Logger) *Overrider {
	if defaultClassroomID <= 0 {
		defaultClassroomID = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Overrider{dir: dir, ledger: ledger, defaultClassroomID: defaultClassroomID, logger: logger}
}

// ManualMark writes one teacher-marked record per known USN in a single
// all-or-nothing batch. Unknown USNs are reported as skipped.
func (o *Overrider) ManualMark(ctx context.Context, req ManualMarkRequest) (ManualMarkResult, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return ManualMarkResult{}, fmt.Errorf("%w: subject missing", ErrInvalidInput)
	}
	if len(req.USNs) == 0 {
		return ManualMarkResult{}, fmt.Errorf("%w: no students provided", ErrInvalidInput)
	}
	classroomID := req.ClassroomID
	if classroomID <= 0 {
		classroomID = o.defaultClassroomID
	}

	ref := ManualBatch(req.Teacher, subject)
	res := ManualMarkResult{
		Marked:    []string{},
		SessionID: ref.String(),
		Results:   make([]ItemResult, 0, len(req.USNs)),
	}

	var recs []Record
	for _, usn := range req.USNs {
		if _, err := o.dir.ByUSN(ctx, usn); err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				res.Results = append(res.Results, ItemResult{USN: usn, Status: ItemSkipped, Reason: "student not found"})
				continue
			}
			return ManualMarkResult{}, fmt.Errorf("%w: lookup %s: %w", ErrStorage, usn, err)
		}
		recs = append(recs, Record{
			StudentUSN:      usn,
			SessionRef:      ref,
			ClassroomID:     classroomID,
			Subject:         subject,
			MarkedByTeacher: true,
		})
		res.Marked = append(res.Marked, usn)
		res.Results = append(res.Results, ItemResult{USN: usn, Status: ItemMarked})
	}

	if len(recs) > 0 {
		if _, err := o.ledger.AppendBatch(ctx, recs); err != nil {
			o.logger.Error("manual mark batch rolled back",
				zap.String("session_id", res.SessionID),
				zap.Int("records", len(recs)),
				zap.Error(err))
			return ManualMarkResult{}, fmt.Errorf("%w: append batch: %w", ErrStorage, err)
		}
	}

	skipped := len(req.USNs) - len(res.Marked)
	metrics.Marks.WithLabelValues("teacher").Add(float64(len(res.Marked)))
	metrics.OverrideSkipped.Add(float64(skipped))
	o.logger.Info("manual attendance marked",
		zap.String("teacher", req.Teacher),
		zap.String("session_id", res.SessionID),
		zap.Int("marked", len(res.Marked)),
		zap.Int("skipped", skipped))
	return res, nil
}
