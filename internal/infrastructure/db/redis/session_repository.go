package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRepository stores each session as a hash.
// Key format: session:<key>, one field per entry.
//
// The TTL slides: every Load or Save of a live session pushes its expiry
// forward. A zero TTL keeps sessions until they are removed.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a SessionRepository wrapping the given client.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

func (r *SessionRepository) Load(ctx context.Context, key string) (map[string]string, error) {
	k := sessionKey(key)
	entries, err := r.client.HGetAll(ctx, k).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(entries) > 0 && r.ttl > 0 {
		if err := r.client.Expire(ctx, k, r.ttl).Err(); err != nil {
			return nil, fmt.Errorf("refresh session ttl: %w", err)
		}
	}
	return entries, nil
}

func (r *SessionRepository) Save(ctx context.Context, key string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	k := sessionKey(key)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, entries)
		if r.ttl > 0 {
			pipe.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Remove(ctx context.Context, key string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, sessionKey(key), names...).Err(); err != nil {
		return fmt.Errorf("remove session entries: %w", err)
	}
	return nil
}

func sessionKey(key string) string {
	return "session:" + key
}
