package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kscst/training-portal/internal/core/domain"
)

// FlashStore keeps the pending banner message of a session.
// Key format: flash:<key>, expiring after ttl.
type FlashStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFlashStore creates a FlashStore wrapping the given client.
func NewFlashStore(client *redis.Client, ttl time.Duration) *FlashStore {
	return &FlashStore{client: client, ttl: ttl}
}

// Push replaces any pending message for key.
func (s *FlashStore) Push(ctx context.Context, key string, flash domain.Flash) error {
	raw, err := json.Marshal(flash)
	if err != nil {
		return fmt.Errorf("encode flash: %w", err)
	}
	return s.client.Set(ctx, flashKey(key), raw, s.ttl).Err()
}

// Pop reads and deletes the pending message in one step.
func (s *FlashStore) Pop(ctx context.Context, key string) (*domain.Flash, error) {
	raw, err := s.client.GetDel(ctx, flashKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop flash: %w", err)
	}

	var f domain.Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode flash: %w", err)
	}
	return &f, nil
}

func flashKey(key string) string {
	return "flash:" + key
}
