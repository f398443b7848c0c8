package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsCreated counts attendance sessions opened by teachers.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "sessions_created_total",
		Help:      "Attendance sessions opened.",
	})

	// SessionsExpired counts sessions flipped inactive by the lazy expiry sweep.
	SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "sessions_expired_total",
		Help:      "Sessions deactivated by the expiry sweep.",
	})

	// Marks counts ledger rows written, by source (self or teacher).
	Marks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "marks_total",
		Help:      "Attendance records appended to the ledger.",
	}, []string{"source"})

	// MarkRejections counts self-service marks refused, by reason.
	MarkRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "mark_rejections_total",
		Help:      "Self-service marks refused before writing.",
	}, []string{"reason"})

	// OverrideSkipped counts USNs dropped from teacher batches because no identity matched.
	OverrideSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "override_skipped_total",
		Help:      "USNs skipped in manual marking batches.",
	})

	// Enrollments counts face enrollment jobs handled by the worker, by outcome.
	Enrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "face_enrollments_total",
		Help:      "Face enrollment jobs processed.",
	}, []string{"outcome"})
)
