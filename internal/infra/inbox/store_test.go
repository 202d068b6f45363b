package inbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	newStore := func(mt *mtest.T) *Store {
		return &Store{col: mt.Coll, consumer: "stayhub-payments", now: func() time.Time { return time.Unix(0, 0).UTC() }}
	}

	mt.Run("first delivery claims the event", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		seen, err := newStore(mt).Seen(context.Background(), "evt-1")
		require.NoError(mt, err)
		assert.False(mt, seen)

		id := mt.GetStartedEvent().Command.Lookup("documents", "0", "_id").StringValue()
		assert.Equal(mt, "stayhub-payments/evt-1", id)
	})

	mt.Run("redelivery is reported", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))
		seen, err := newStore(mt).Seen(context.Background(), "evt-1")
		require.NoError(mt, err)
		assert.True(mt, seen)
	})

	mt.Run("other write errors surface", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 2, Message: "bad value"}))
		_, err := newStore(mt).Seen(context.Background(), "evt-1")
		assert.Error(mt, err)
	})

	mt.Run("release deletes the claim", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(mt, newStore(mt).Release(context.Background(), "evt-1"))
		assert.Equal(mt, "delete", mt.GetStartedEvent().CommandName)
	})
}
