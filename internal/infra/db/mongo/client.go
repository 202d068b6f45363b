package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names owned by stayhub.
const (
	CollectionListings    = "listings"
	CollectionBookings    = "bookings"
	CollectionCalendars   = "listing_calendars"
	CollectionOutbox      = "booking_outbox"
	CollectionInbox       = "payment_inbox"
	CollectionIdempotency = "command_results"
)

const (
	appName        = "stayhub"
	connectTimeout = 10 * time.Second
	selectTimeout  = 5 * time.Second
)

// Client owns the driver connection and the stayhub database handle.
type Client struct {
	DB *mongo.Database
}

// New connects to uri and fails unless the primary answers a ping.
func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	opts := options.Client().
		ApplyURI(uri).
		SetAppName(appName).
		SetRetryWrites(true).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(selectTimeout)
	conn, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx, readpref.Primary()); err != nil {
		_ = conn.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", database, err)
	}
	return &Client{DB: conn.Database(database)}, nil
}

// Ping backs the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates models on col. Existing identical indexes are left
// alone by the server.
func EnsureIndexes(ctx context.Context, col *mongo.Collection, models ...mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("indexes on %s: %w", col.Name(), err)
	}
	return nil
}
