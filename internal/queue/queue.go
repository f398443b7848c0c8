package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TypeFaceRegistered is published after a student's face photo is stored.
const TypeFaceRegistered = "face.registered"

// DefaultKey is the Redis list used for background jobs.
const DefaultKey = "attendance:jobs"

// Message represents work to be processed.
type Message struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// FaceEnrollment asks the worker to enroll a stored photo with the face service.
type FaceEnrollment struct {
	USN      string `json:"usn"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// NewFaceEnrollment wraps e in a message.
func NewFaceEnrollment(e FaceEnrollment) (Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return Message{}, fmt.Errorf("encode face enrollment: %w", err)
	}
	return Message{Type: TypeFaceRegistered, Body: body}, nil
}

// FaceEnrollment decodes the payload of a face.registered message.
func (m Message) FaceEnrollment() (FaceEnrollment, error) {
	if m.Type != TypeFaceRegistered {
		return FaceEnrollment{}, fmt.Errorf("message type %q is not %s", m.Type, TypeFaceRegistered)
	}
	var e FaceEnrollment
	if err := json.Unmarshal(m.Body, &e); err != nil {
		return FaceEnrollment{}, fmt.Errorf("decode face enrollment: %w", err)
	}
	if e.USN == "" {
		return FaceEnrollment{}, errors.New("face enrollment without usn")
	}
	return e, nil
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory is a channel-backed queue for dev and tests.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message, blocking while the buffer is full.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers. It closes when ctx is done.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
	// OnError receives decode and transport failures. Optional.
	OnError func(error)
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// Consume streams messages using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, redis.Nil) {
					q.report(err)
					// Back off so a down Redis does not spin.
					select {
					case <-time.After(time.Second):
					case <-ctx.Done():
						return
					}
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			var msg Message
			if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
				q.report(fmt.Errorf("decode message: %w", err))
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (q *RedisQueue) report(err error) {
	if q.OnError != nil {
		q.OnError(err)
	}
}
