package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionSessions = "portal_sessions"

// SessionRepository implements ports.SessionRepository using one document
// per session key.
type SessionRepository struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository. With a positive ttl,
// EnsureIndexes installs a TTL index so idle sessions expire.
func NewSessionRepository(db *mongo.Database, ttl time.Duration) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions), ttl: ttl, now: time.Now}
}

type sessionDoc struct {
	Key       string            `bson:"_id"`
	Entries   map[string]string `bson:"entries"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// Load returns the entries stored under key and refreshes updated_at, so the
// expiry window slides with use as it does for the Redis store. A missing
// document is an empty session and is not created.
func (r *SessionRepository) Load(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sessionDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"updated_at": r.now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = map[string]string{}
	}
	return doc.Entries, nil
}

// Save upserts the given entries, leaving other entries untouched.
func (r *SessionRepository) Save(ctx context.Context, key string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": r.now().UTC()}
	for name, value := range entries {
		set["entries."+name] = value
	}

	_, err := r.col.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": set}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Remove unsets the named entries.
func (r *SessionRepository) Remove(ctx context.Context, key string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	unset := bson.M{}
	for _, name := range names {
		unset["entries."+name] = ""
	}

	update := bson.M{
		"$unset": unset,
		"$set":   bson.M{"updated_at": r.now().UTC()},
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": key}, update); err != nil {
		return fmt.Errorf("unset session entries: %w", err)
	}
	return nil
}

// EnsureIndexes creates the expiry index on the sessions collection.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	if r.ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(r.ttl / time.Second)),
	})
	return err
}
