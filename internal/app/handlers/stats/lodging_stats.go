package stats

import (
	"context"
	"time"

	"stayhub/internal/app/dto"
	handlersupport "stayhub/internal/app/handlers/support"
	"stayhub/internal/app/identity"
	"stayhub/internal/app/queries"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
)

const lodgingStatsKey = "stats.lodging"

type LodgingStatsQuery struct {
	ListingID string `validate:"required"`
}

func (q LodgingStatsQuery) Key() string { return lodgingStatsKey }

func (q LodgingStatsQuery) RequiredRole() string { return identity.RoleHost }

type LodgingStatsHandler struct {
	UoWFactory uow.UoWFactory
	Listings   domainlistings.Reader
	Now        func() time.Time
}

func (h *LodgingStatsHandler) Handle(ctx context.Context, q LodgingStatsQuery) (dto.LodgingStats, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.LodgingStats{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := handlersupport.LoadListing(execCtx, h.Listings, unit, q.ListingID)
	if err != nil {
		return dto.LodgingStats{}, err
	}
	if err := handlersupport.EnsureHostAccess(execCtx, listing); err != nil {
		return dto.LodgingStats{}, err
	}
	bookings, err := unit.Bookings().ListByListing(execCtx, listing.ID)
	if err != nil {
		return dto.LodgingStats{}, err
	}
	stats := domainbooking.ComputeLodgingStats(bookings, handlersupport.Now(h.Now))
	return dto.MapLodgingStats(string(listing.ID), listing.Currency, stats), nil
}

var _ queries.Handler[LodgingStatsQuery, dto.LodgingStats] = (*LodgingStatsHandler)(nil)
