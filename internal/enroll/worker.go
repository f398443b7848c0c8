// Package enroll forwards stored face photos to the face recognition service.
package enroll

import (
	"context"

	"go.uber.org/zap"

	"smartattendance/internal/faceclient"
	"smartattendance/internal/metrics"
	"smartattendance/internal/queue"
)

// Enroller registers a face image for a student. *faceclient.Client satisfies it.
type Enroller interface {
	Enroll(ctx context.Context, usn, imageURL, name string) (*faceclient.EnrollResult, error)
}

// Worker consumes face.registered jobs. Failed jobs are logged and dropped;
// the student can register again.
type Worker struct {
	faces  Enroller
	logger *zap.Logger
}

// NewWorker creates a worker.
func NewWorker(faces Enroller, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{faces: faces, logger: logger}
}

// Run processes messages until ctx is done or the queue closes.
func (w *Worker) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("enrollment worker started")
	for msg := range messages {
		w.Handle(ctx, msg)
	}
	w.logger.Info("enrollment worker stopped")
	return nil
}

// Handle processes one message.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) {
	if msg.Type != queue.TypeFaceRegistered {
		w.logger.Debug("ignoring message", zap.String("type", msg.Type))
		metrics.Enrollments.WithLabelValues("ignored").Inc()
		return
	}
	job, err := msg.FaceEnrollment()
	if err != nil {
		w.logger.Warn("bad enrollment job", zap.Error(err))
		metrics.Enrollments.WithLabelValues("invalid").Inc()
		return
	}

	res, err := w.faces.Enroll(ctx, job.USN, job.ImageURL, job.Name)
	switch {
	case err != nil:
		w.logger.Error("face enrollment failed", zap.String("usn", job.USN), zap.Error(err))
		metrics.Enrollments.WithLabelValues("failed").Inc()
	case !res.Success:
		w.logger.Warn("face enrollment rejected", zap.String("usn", job.USN), zap.String("message", res.Message))
		metrics.Enrollments.WithLabelValues("rejected").Inc()
	default:
		w.logger.Info("face enrolled", zap.String("usn", job.USN))
		metrics.Enrollments.WithLabelValues("enrolled").Inc()
	}
}
