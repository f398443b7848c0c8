package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRedisUnconfigured(t *testing.T) {
	var r *Redis
	if err := r.Ping(context.Background()); !errors.Is(err, ErrNoRedis) {
		t.Fatalf("Ping on nil = %v, want ErrNoRedis", err)
	}
	if r.Healthy(context.Background()) {
		t.Fatal("nil redis reported healthy")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
}

func TestRedisUnreachable(t *testing.T) {
	// Nothing listens on port 1.
	r := NewRedis("127.0.0.1:1")
	defer r.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := r.Ping(ctx)
	if err == nil || errors.Is(err, ErrNoRedis) {
		t.Fatalf("Ping = %v, want dial error", err)
	}
	if r.Healthy(ctx) {
		t.Fatal("unreachable redis reported healthy")
	}
}
