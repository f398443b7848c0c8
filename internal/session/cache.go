package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores the active session under one key that expires with it.
type RedisCache struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisCache builds a cache on key; an empty key uses the default.
func NewRedisCache(client *redis.Client, key string) *RedisCache {
	if key == "" {
		key = "attendance:active_session"
	}
	return &RedisCache{client: client, key: key, now: time.Now}
}

func (c *RedisCache) Get(ctx context.Context) (*Session, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *RedisCache) Set(ctx context.Context, s Session) error {
	ttl := s.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return c.Clear(ctx)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, ttl).Err()
}

func (c *RedisCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
