package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayhub/internal/domain/booking"
	"stayhub/internal/domain/listings"
	domainpricing "stayhub/internal/domain/pricing"
	domainrange "stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
)

type BookingRepository struct {
	col       *mongo.Collection
	calendars *mongo.Collection
}

func NewBookingRepository(ctx context.Context, db *mongo.Database) (*BookingRepository, error) {
	col := db.Collection(CollectionBookings)
	err := EnsureIndexes(ctx, col,
		mongo.IndexModel{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "created_at", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: 1}}},
	)
	if err != nil {
		return nil, err
	}
	return &BookingRepository{col: col, calendars: db.Collection(CollectionCalendars)}, nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

// Save upserts b guarded by its version. A stale version either matches no
// document or collides with the existing _id on upsert.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

// ClaimCalendar bumps the listing's calendar revision inside the session's
// transaction. Bookings for one listing live in separate documents, so this
// shared write is what makes two overlapping confirms collide.
func (r *BookingRepository) ClaimCalendar(ctx context.Context, listingID listings.ListingID) error {
	update := bson.M{
		"$inc": bson.M{"revision": 1},
		"$set": bson.M{"updated_at": time.Now().UTC().UnixMilli()},
	}
	_, err := r.calendars.UpdateOne(ctx, bson.M{"_id": string(listingID)}, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: calendar %s", domainbooking.ErrConcurrentUpdate, listingID)
		}
		return classifyTxnError(err)
	}
	return nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID listings.ListingID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"listing_id": string(listingID)})
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"guest_id": guestID})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		agg, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

// Stay dates are kept as calendar days so a reload never shifts a night.
type bookingDocument struct {
	ID           string                      `bson:"_id"`
	ListingID    string                      `bson:"listing_id"`
	HostID       string                      `bson:"host_id"`
	GuestID      string                      `bson:"guest_id"`
	Range        rangeDocument               `bson:"range"`
	Guests       int                         `bson:"guests"`
	Quote        domainpricing.PricingResult `bson:"quote"`
	Total        money.Money                 `bson:"total"`
	Status       string                      `bson:"status"`
	PaymentRef   string                      `bson:"payment_ref,omitempty"`
	CancelReason string                      `bson:"cancel_reason,omitempty"`
	CreatedAt    int64                       `bson:"created_at"`
	UpdatedAt    int64                       `bson:"updated_at"`
	Version      int64                       `bson:"version"`
}

type rangeDocument struct {
	CheckIn  string `bson:"check_in"`
	CheckOut string `bson:"check_out"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:           string(b.ID),
		ListingID:    string(b.ListingID),
		HostID:       string(b.HostID),
		GuestID:      b.GuestID,
		Range:        rangeDocument{CheckIn: b.Range.CheckIn.Format(time.DateOnly), CheckOut: b.Range.CheckOut.Format(time.DateOnly)},
		Guests:       b.Guests,
		Quote:        b.Quote,
		Total:        b.Total,
		Status:       string(b.Status),
		PaymentRef:   b.PaymentRef,
		CancelReason: b.CancelReason,
		CreatedAt:    b.CreatedAt.UnixMilli(),
		UpdatedAt:    b.UpdatedAt.UnixMilli(),
		Version:      b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	checkIn, err := time.Parse(time.DateOnly, d.Range.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %s check-in: %w", d.ID, err)
	}
	checkOut, err := time.Parse(time.DateOnly, d.Range.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %s check-out: %w", d.ID, err)
	}
	return &domainbooking.Booking{
		ID:           domainbooking.BookingID(d.ID),
		ListingID:    listings.ListingID(d.ListingID),
		HostID:       listings.HostID(d.HostID),
		GuestID:      d.GuestID,
		Range:        domainrange.Of(checkIn, checkOut),
		Guests:       d.Guests,
		Quote:        d.Quote,
		Total:        d.Total,
		Status:       domainbooking.Status(d.Status),
		PaymentRef:   d.PaymentRef,
		CancelReason: d.CancelReason,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
