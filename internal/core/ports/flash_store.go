package ports

import (
	"context"

	"github.com/kscst/training-portal/internal/core/domain"
)

// FlashStore keeps at most one pending banner message per session key. The
// message expires on its own if nobody reads it.
type FlashStore interface {
	Push(ctx context.Context, key string, flash domain.Flash) error
	// Pop returns and deletes the pending message, or nil when there is none.
	Pop(ctx context.Context, key string) (*domain.Flash, error)
}
