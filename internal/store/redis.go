package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoRedis is returned by Ping on a Redis that was never connected.
var ErrNoRedis = errors.New("store: redis not configured")

// Redis is the shared connection behind the active-session cache, the
// enrollment job queue and the /health redis check. One pool serves all three.
type Redis struct {
	Client *redis.Client
}

// NewRedis dials lazily; timeouts are short so a down Redis degrades the
// cache and health check instead of stalling requests.
func NewRedis(addr string) *Redis {
	return &Redis{Client: redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})}
}

// Ping reports why Redis is unreachable, or nil.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return ErrNoRedis
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis %s: %w", r.Client.Options().Addr, err)
	}
	return nil
}

// Healthy satisfies the health checker used by GET /health.
func (r *Redis) Healthy(ctx context.Context) bool {
	return r.Ping(ctx) == nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
