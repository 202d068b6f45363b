package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "stayhub/internal/app/outbox"
	mongodb "stayhub/internal/infra/db/mongo"
)

type relayState string

const (
	statePending relayState = "pending"
	stateLeased  relayState = "leased"
	stateSent    relayState = "sent"
)

const (
	// defaultLease is how long a claimed record stays with its worker before
	// another worker may take it over.
	defaultLease  = time.Minute
	sentRetention = 7 * 24 * time.Hour
)

// MongoStore keeps outbox records next to the bookings they describe. Add
// writes through the session carried by ctx, so a record commits or rolls
// back with its aggregate.
type MongoStore struct {
	col   *mongo.Collection
	lease time.Duration
	now   func() time.Time
}

func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	col := db.Collection(mongodb.CollectionOutbox)
	err := mongodb.EnsureIndexes(ctx, col,
		mongo.IndexModel{Keys: bson.D{{Key: "state", Value: 1}, {Key: "due_at", Value: 1}}},
		mongo.IndexModel{
			Keys: bson.D{{Key: "sent_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(int32(sentRetention.Seconds())).
				SetPartialFilterExpression(bson.M{"state": stateSent}),
		},
	)
	if err != nil {
		return nil, err
	}
	return &MongoStore{col: col, lease: defaultLease, now: func() time.Time { return time.Now().UTC() }}, nil
}

type relayDocument struct {
	ID         string            `bson:"_id"`
	Name       string            `bson:"name"`
	Aggregate  string            `bson:"aggregate"`
	Payload    []byte            `bson:"payload"`
	Headers    map[string]string `bson:"headers,omitempty"`
	OccurredAt time.Time         `bson:"occurred_at"`
	State      relayState        `bson:"state"`
	Attempts   int               `bson:"attempts"`
	DueAt      time.Time         `bson:"due_at"`
	LeasedBy   string            `bson:"leased_by,omitempty"`
	SentAt     *time.Time        `bson:"sent_at,omitempty"`
	LastError  string            `bson:"last_error,omitempty"`
}

func (s *MongoStore) Add(ctx context.Context, rec appoutbox.EventRecord) error {
	_, err := s.col.InsertOne(ctx, relayDocument{
		ID:         rec.ID,
		Name:       rec.Name,
		Aggregate:  rec.Aggregate,
		Payload:    rec.Payload,
		Headers:    rec.Headers,
		OccurredAt: rec.OccurredAt,
		State:      statePending,
		DueAt:      s.now(),
	})
	return err
}

// Flush is a no-op: committed records are already visible to the relay.
func (s *MongoStore) Flush(context.Context) error {
	return nil
}

// Claim leases the next due record to workerID. A record whose lease ran out
// is due again, so a crashed worker never strands it.
func (s *MongoStore) Claim(ctx context.Context, workerID string) (*Record, error) {
	now := s.now()
	filter := bson.M{
		"state":  bson.M{"$in": bson.A{statePending, stateLeased}},
		"due_at": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"state":     stateLeased,
		"leased_by": workerID,
		"due_at":    now.Add(s.lease),
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "due_at", Value: 1}, {Key: "occurred_at", Value: 1}}).
		SetReturnDocument(options.After)

	var doc relayDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &Record{
		EventRecord: appoutbox.EventRecord{
			ID:         doc.ID,
			Name:       doc.Name,
			Payload:    doc.Payload,
			OccurredAt: doc.OccurredAt,
			Aggregate:  doc.Aggregate,
			Headers:    doc.Headers,
		},
		Attempts: doc.Attempts,
	}, nil
}

func (s *MongoStore) MarkSent(ctx context.Context, id string) error {
	now := s.now()
	_, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"state": stateSent, "sent_at": now},
		"$unset": bson.M{"leased_by": "", "last_error": ""},
	})
	return err
}

// MarkFailed returns the record to the queue, due again at next.
func (s *MongoStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"state": statePending, "due_at": next, "last_error": errMsg},
		"$unset": bson.M{"leased_by": ""},
		"$inc":   bson.M{"attempts": 1},
	})
	return err
}

var (
	_ appoutbox.Outbox = (*MongoStore)(nil)
	_ Store            = (*MongoStore)(nil)
)
