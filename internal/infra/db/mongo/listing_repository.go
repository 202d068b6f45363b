package mongo

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "stayhub/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(CollectionListings)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts l guarded by its version; a brand-new listing carries
// version 0 and a stale edit collides with the existing _id.
func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	doc.Version = l.Version + 1
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	res, err := r.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainlistings.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainlistings.ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	cur, err := r.col.Find(ctx, searchFilter(params.Normalized()), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func searchFilter(p domainlistings.SearchParams) bson.M {
	var and bson.A
	if p.OnlyActive {
		and = append(and, bson.M{"state": string(domainlistings.ListingActive)})
	}
	if p.Host != "" {
		and = append(and, bson.M{"host_id": string(p.Host)})
	}
	if p.City != "" {
		and = append(and, bson.M{"city": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(p.City) + "$", Options: "i"}})
	}
	if p.Text != "" {
		text := primitive.Regex{Pattern: regexp.QuoteMeta(p.Text), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": text},
			bson.M{"description": text},
			bson.M{"city": text},
		}})
	}
	if p.MinGuests > 0 {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"capacity": bson.M{"$exists": false}},
			bson.M{"capacity": 0},
			bson.M{"capacity": bson.M{"$gte": p.MinGuests}},
		}})
	}
	if p.MaxPrice != nil {
		and = append(and, bson.M{"price_per_night": bson.M{"$ne": nil, "$lte": *p.MaxPrice}})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

type listingDocument struct {
	ID              string   `bson:"_id"`
	Host            string   `bson:"host_id"`
	Title           string   `bson:"title"`
	Description     string   `bson:"description,omitempty"`
	City            string   `bson:"city,omitempty"`
	Capacity        int      `bson:"capacity"`
	PricePerNight   *float64 `bson:"price_per_night"`
	IncreaseFromDay string   `bson:"increase_from_day,omitempty"`
	Currency        string   `bson:"currency"`
	State           string   `bson:"state"`
	Version         int64    `bson:"version"`
	CreatedAt       int64    `bson:"created_at"`
	UpdatedAt       int64    `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:              string(l.ID),
		Host:            string(l.Host),
		Title:           l.Title,
		Description:     l.Description,
		City:            l.City,
		Capacity:        l.Capacity,
		PricePerNight:   l.PricePerNight,
		IncreaseFromDay: l.IncreaseFromDay,
		Currency:        l.Currency,
		State:           string(l.State),
		Version:         l.Version,
		CreatedAt:       l.CreatedAt.UnixMilli(),
		UpdatedAt:       l.UpdatedAt.UnixMilli(),
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:              domainlistings.ListingID(d.ID),
		Host:            domainlistings.HostID(d.Host),
		Title:           d.Title,
		Description:     d.Description,
		City:            d.City,
		Capacity:        d.Capacity,
		PricePerNight:   d.PricePerNight,
		IncreaseFromDay: d.IncreaseFromDay,
		Currency:        d.Currency,
		State:           domainlistings.ListingState(d.State),
		Version:         d.Version,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
	}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
