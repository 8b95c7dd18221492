package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kscst/training-portal/internal/core/domain"
)

type pendingFlash struct {
	flash     domain.Flash
	expiresAt time.Time
}

// FlashStore keeps one pending message per key until it is popped or its
// TTL elapses.
type FlashStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]pendingFlash
}

func NewFlashStore(ttl time.Duration) *FlashStore {
	return &FlashStore{ttl: ttl, now: time.Now, pending: make(map[string]pendingFlash)}
}

func (s *FlashStore) Push(_ context.Context, key string, flash domain.Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.pending[key] = pendingFlash{flash: flash, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *FlashStore) Pop(_ context.Context, key string) (*domain.Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[key]
	if !ok {
		return nil, nil
	}
	delete(s.pending, key)
	if !s.now().Before(p.expiresAt) {
		return nil, nil
	}
	f := p.flash
	return &f, nil
}

// sweep drops expired messages so abandoned sessions do not accumulate.
func (s *FlashStore) sweep(now time.Time) {
	for k, p := range s.pending {
		if !now.Before(p.expiresAt) {
			delete(s.pending, k)
		}
	}
}
