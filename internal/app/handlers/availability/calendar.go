package availability

import (
	"context"
	"time"

	"stayhub/internal/app/dto"
	handlersupport "stayhub/internal/app/handlers/support"
	"stayhub/internal/app/queries"
	"stayhub/internal/app/uow"
	domainavailability "stayhub/internal/domain/availability"
	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/daterange"
)

const (
	getCalendarKey = "availability.calendar"
	checkRangeKey  = "availability.check_range"
)

// GetCalendarQuery lists the nights taken by confirmed bookings. Booking ids
// are only shown to the listing's host.
type GetCalendarQuery struct {
	ListingID string `validate:"required"`
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Listings   domainlistings.Reader
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := handlersupport.LoadListing(execCtx, h.Listings, unit, q.ListingID)
	if err != nil {
		return dto.Calendar{}, err
	}
	cal, err := loadCalendar(execCtx, unit, listing.ID)
	if err != nil {
		return dto.Calendar{}, err
	}
	showRefs := handlersupport.EnsureHostAccess(execCtx, listing) == nil
	return dto.MapCalendar(cal, showRefs), nil
}

// CheckRangeQuery answers whether a stay could still be booked.
type CheckRangeQuery struct {
	ListingID string    `validate:"required"`
	CheckIn   time.Time `validate:"required"`
	CheckOut  time.Time `validate:"required"`
}

func (q CheckRangeQuery) Key() string { return checkRangeKey }

type CheckRangeHandler struct {
	UoWFactory uow.UoWFactory
	Listings   domainlistings.Reader
}

func (h *CheckRangeHandler) Handle(ctx context.Context, q CheckRangeQuery) (dto.Availability, error) {
	requested, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Availability{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := handlersupport.LoadListing(execCtx, h.Listings, unit, q.ListingID)
	if err != nil {
		return dto.Availability{}, err
	}
	cal, err := loadCalendar(execCtx, unit, listing.ID)
	if err != nil {
		return dto.Availability{}, err
	}

	out := dto.Availability{
		ListingID: string(listing.ID),
		CheckIn:   dto.FormatDate(requested.CheckIn),
		CheckOut:  dto.FormatDate(requested.CheckOut),
		Available: cal.CanReserve(requested),
	}
	if !out.Available {
		conflicts := &domainavailability.Calendar{ListingID: listing.ID, Blocks: cal.Conflicts(requested)}
		out.Conflicts = dto.MapCalendar(conflicts, false).Blocks
	}
	return out, nil
}

func loadCalendar(ctx context.Context, unit uow.UnitOfWork, listingID domainlistings.ListingID) (*domainavailability.Calendar, error) {
	bookings, err := unit.Bookings().ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	cal := domainavailability.NewCalendar(listingID)
	for _, b := range bookings {
		if b.Occupies() {
			cal.Occupy(b.Range, string(b.ID))
		}
	}
	return cal, nil
}

var (
	_ queries.Handler[GetCalendarQuery, dto.Calendar]    = (*GetCalendarHandler)(nil)
	_ queries.Handler[CheckRangeQuery, dto.Availability] = (*CheckRangeHandler)(nil)
)
