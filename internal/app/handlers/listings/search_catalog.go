package listings

import (
	"context"
	"errors"
	"time"

	"stayhub/internal/app/dto"
	handlersupport "stayhub/internal/app/handlers/support"
	"stayhub/internal/app/queries"
	"stayhub/internal/app/uow"
	domainavailability "stayhub/internal/domain/availability"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/daterange"
)

const (
	searchCatalogKey = "listings.search"
	getListingKey    = "listings.get"
)

// ErrRemoteCatalog is returned for catalog browsing and editing while
// listings are served by a remote catalog that only resolves single ids.
var ErrRemoteCatalog = errors.New("listings: catalog is managed remotely")

// SearchCatalogQuery browses bookable listings. When both dates are set only
// listings free for the whole stay are returned.
type SearchCatalogQuery struct {
	City     string
	Text     string
	Guests   int `validate:"gte=0"`
	MaxPrice *float64
	CheckIn  time.Time
	CheckOut time.Time
	Limit    int `validate:"gte=0"`
	Offset   int `validate:"gte=0"`
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

type SearchCatalogHandler struct {
	UoWFactory uow.UoWFactory
	// Source is the remote catalog, if any.
	Source domainlistings.Reader
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (dto.ListingCatalog, error) {
	if h.Source != nil {
		return dto.ListingCatalog{}, ErrRemoteCatalog
	}
	var stay daterange.DateRange
	if !q.CheckIn.IsZero() || !q.CheckOut.IsZero() {
		dr, err := daterange.New(q.CheckIn, q.CheckOut)
		if err != nil {
			return dto.ListingCatalog{}, err
		}
		stay = dr
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainlistings.SearchParams{
		City:       q.City,
		Text:       q.Text,
		MinGuests:  q.Guests,
		MaxPrice:   q.MaxPrice,
		OnlyActive: true,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}.Normalized()
	found, err := unit.Listings().Search(execCtx, params)
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	if !stay.IsZero() {
		found, err = freeFor(execCtx, unit, found, stay)
		if err != nil {
			return dto.ListingCatalog{}, err
		}
	}
	return dto.MapListingCatalog(domainlistings.Page(found, params), len(found), params), nil
}

func freeFor(ctx context.Context, unit uow.UnitOfWork, items []*domainlistings.Listing, stay daterange.DateRange) ([]*domainlistings.Listing, error) {
	out := items[:0]
	for _, l := range items {
		bookings, err := unit.Bookings().ListByListing(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		if domainavailability.IsRangeAvailable(stay, domainbooking.OccupiedRanges(bookings)) {
			out = append(out, l)
		}
	}
	return out, nil
}

// GetListingQuery shows one listing. Drafts and suspended listings are
// visible to their host and admins only.
type GetListingQuery struct {
	ListingID string `validate:"required"`
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
	Listings   domainlistings.Reader
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.Listing, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := handlersupport.LoadListing(execCtx, h.Listings, unit, q.ListingID)
	if err != nil {
		return dto.Listing{}, err
	}
	if listing.State != domainlistings.ListingActive && handlersupport.EnsureHostAccess(execCtx, listing) != nil {
		return dto.Listing{}, domainlistings.ErrNotFound
	}
	return dto.MapListing(listing), nil
}

var (
	_ queries.Handler[SearchCatalogQuery, dto.ListingCatalog] = (*SearchCatalogHandler)(nil)
	_ queries.Handler[GetListingQuery, dto.Listing]           = (*GetListingHandler)(nil)
)
