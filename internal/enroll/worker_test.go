package enroll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smartattendance/internal/faceclient"
	"smartattendance/internal/queue"
)

type recordingEnroller struct {
	mu    sync.Mutex
	calls []queue.FaceEnrollment
	err   error
	done  chan struct{}
}

func (r *recordingEnroller) Enroll(ctx context.Context, usn, imageURL, name string) (*faceclient.EnrollResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, queue.FaceEnrollment{USN: usn, ImageURL: imageURL, Name: name})
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &faceclient.EnrollResult{USN: usn, Success: true}, nil
}

func TestRunEnrollsQueuedFaces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemory(4)
	enr := &recordingEnroller{done: make(chan struct{}, 4)}
	w := NewWorker(enr, nil)

	stopped := make(chan error, 1)
	go func() { stopped <- w.Run(ctx, q) }()

	_ = q.Publish(ctx, queue.Message{Type: "other"})
	msg, _ := queue.NewFaceEnrollment(queue.FaceEnrollment{USN: "U1", Name: "Asha", ImageURL: "face_data/U1.jpg"})
	if err := q.Publish(ctx, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-enr.done:
	case <-time.After(2 * time.Second):
		t.Fatal("enrollment not called")
	}
	cancel()
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	enr.mu.Lock()
	defer enr.mu.Unlock()
	if len(enr.calls) != 1 {
		t.Fatalf("calls = %+v, want one", enr.calls)
	}
	if got := enr.calls[0]; got.USN != "U1" || got.Name != "Asha" || got.ImageURL != "face_data/U1.jpg" {
		t.Fatalf("call = %+v", got)
	}
}

func TestHandleSurvivesFailures(t *testing.T) {
	enr := &recordingEnroller{err: errors.New("face service down")}
	w := NewWorker(enr, nil)
	ctx := context.Background()

	w.Handle(ctx, queue.Message{Type: queue.TypeFaceRegistered, Body: []byte("not json")})
	msg, _ := queue.NewFaceEnrollment(queue.FaceEnrollment{USN: "U1"})
	w.Handle(ctx, msg)

	if len(enr.calls) != 1 {
		t.Fatalf("calls = %d, want 1 (invalid body must not reach the service)", len(enr.calls))
	}
}
