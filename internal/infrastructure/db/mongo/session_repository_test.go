package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestSessionRepository_LoadSlidesExpiry(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("touches updated_at", func(mt *mtest.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		repo := NewSessionRepository(mt.DB, time.Hour)
		repo.now = func() time.Time { return now }

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "sid-1"},
			{Key: "entries", Value: bson.D{{Key: "user", Value: `{"username":"alice","role":"ADMIN"}`}}},
			{Key: "updated_at", Value: now},
		}}))

		entries, err := repo.Load(context.Background(), "sid-1")
		require.NoError(mt, err)
		assert.Equal(mt, `{"username":"alice","role":"ADMIN"}`, entries["user"])

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		touched, err := started.Command.LookupErr("update", "$set", "updated_at")
		require.NoError(mt, err)
		assert.Equal(mt, now.UnixMilli(), touched.Time().UnixMilli())
		upsert, err := started.Command.LookupErr("upsert")
		assert.True(mt, err != nil || !upsert.Boolean(), "loading must not create a session")
	})

	mt.Run("missing session is empty", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, time.Hour)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		entries, err := repo.Load(context.Background(), "gone")
		require.NoError(mt, err)
		assert.Empty(mt, entries)
	})
}
