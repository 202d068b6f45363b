package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongodb "stayhub/internal/infra/db/mongo"
)

// retention bounds how long a processed event id blocks redelivery.
const retention = 30 * 24 * time.Hour

// Store remembers which payment events a consumer group already applied.
// Each entry is keyed by group and event id, so claiming is a single insert.
type Store struct {
	col      *mongo.Collection
	consumer string
	now      func() time.Time
}

func NewStore(ctx context.Context, db *mongo.Database, consumer string) (*Store, error) {
	col := db.Collection(mongodb.CollectionInbox)
	err := mongodb.EnsureIndexes(ctx, col, mongo.IndexModel{
		Keys:    bson.D{{Key: "received_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())),
	})
	if err != nil {
		return nil, err
	}
	return &Store{col: col, consumer: consumer, now: func() time.Time { return time.Now().UTC() }}, nil
}

type entry struct {
	ID         string    `bson:"_id"`
	Consumer   string    `bson:"consumer"`
	EventID    string    `bson:"event_id"`
	ReceivedAt time.Time `bson:"received_at"`
}

func (s *Store) key(eventID string) string {
	return s.consumer + "/" + eventID
}

// Seen claims eventID and reports whether an earlier delivery already had.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.col.InsertOne(ctx, entry{
		ID:         s.key(eventID),
		Consumer:   s.consumer,
		EventID:    eventID,
		ReceivedAt: s.now(),
	})
	switch {
	case err == nil:
		return false, nil
	case mongo.IsDuplicateKeyError(err):
		return true, nil
	default:
		return false, err
	}
}

// Release drops the claim so the next delivery is applied again.
func (s *Store) Release(ctx context.Context, eventID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": s.key(eventID)})
	return err
}
