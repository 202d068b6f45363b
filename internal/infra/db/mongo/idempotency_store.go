package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayhub/internal/app/middleware"
)

const defaultResultTTL = 7 * 24 * time.Hour

// IdempotencyStore keeps successful command results until their expires_at.
// The TTL monitor removes expired documents lazily, so Get ignores them too.
type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	col := db.Collection(CollectionIdempotency)
	err := EnsureIndexes(ctx, col, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc commandResult
	filter := bson.M{"_id": key, "expires_at": bson.M{"$gt": s.now()}}
	err := s.col.FindOne(ctx, filter).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return middleware.IdempotencyRecord{}, false, nil
	case err != nil:
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:         doc.Key,
		Fingerprint: doc.Fingerprint,
		Payload:     doc.Result,
		OccurredAt:  doc.OccurredAt,
	}, true, nil
}

// Save overwrites any expired result stored under the same key.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := commandResult{
		Key:         rec.Key,
		Fingerprint: rec.Fingerprint,
		Result:      rec.Payload,
		OccurredAt:  rec.OccurredAt,
		ExpiresAt:   s.now().Add(s.ttl),
	}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, options.Replace().SetUpsert(true))
	return err
}

type commandResult struct {
	Key         string    `bson:"_id"`
	Fingerprint string    `bson:"fingerprint,omitempty"`
	Result      []byte    `bson:"result,omitempty"`
	OccurredAt  time.Time `bson:"occurred_at"`
	ExpiresAt   time.Time `bson:"expires_at"`
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
