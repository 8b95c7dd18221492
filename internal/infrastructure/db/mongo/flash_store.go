package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kscst/training-portal/internal/core/domain"
)

const collectionFlash = "portal_flash"

// FlashStore implements ports.FlashStore with one document per session key.
// Expired documents are ignored on read and reaped by a TTL index.
type FlashStore struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

// NewFlashStore creates a new FlashStore.
func NewFlashStore(db *mongo.Database, ttl time.Duration) *FlashStore {
	return &FlashStore{col: db.Collection(collectionFlash), ttl: ttl, now: time.Now}
}

type flashDoc struct {
	Key       string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	Message   string    `bson:"message"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (s *FlashStore) Push(ctx context.Context, key string, flash domain.Flash) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := flashDoc{Key: key, Kind: flash.Kind, Message: flash.Message, ExpiresAt: s.now().Add(s.ttl).UTC()}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("push flash: %w", err)
	}
	return nil
}

func (s *FlashStore) Pop(ctx context.Context, key string) (*domain.Flash, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc flashDoc
	err := s.col.FindOneAndDelete(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("pop flash: %w", err)
	}
	if !s.now().Before(doc.ExpiresAt) {
		return nil, nil
	}
	return &domain.Flash{Kind: doc.Kind, Message: doc.Message}, nil
}

// EnsureIndexes creates the TTL index that removes unread messages.
func (s *FlashStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}
