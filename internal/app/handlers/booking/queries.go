package booking

import (
	"context"
	"sort"
	"strings"

	"stayhub/internal/app/dto"
	handlersupport "stayhub/internal/app/handlers/support"
	"stayhub/internal/app/identity"
	"stayhub/internal/app/queries"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
)

const (
	getBookingKey          = "booking.get"
	listListingBookingsKey = "booking.list_by_listing"
	listMyBookingsKey      = "booking.list_mine"
	allStatusesFilterValue = "ALL"
)

type GetBookingQuery struct {
	BookingID string `validate:"required"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

func (q GetBookingQuery) RequiresCaller() bool { return true }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	booking, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(strings.TrimSpace(q.BookingID)))
	if err != nil {
		return dto.Booking{}, err
	}
	if err := ensureParticipant(execCtx, booking); err != nil {
		return dto.Booking{}, err
	}
	return dto.MapBooking(booking), nil
}

// ListListingBookingsQuery lists a listing's bookings for its host, newest
// first. Status filters by booking status; empty or ALL keeps every status.
type ListListingBookingsQuery struct {
	ListingID string `validate:"required"`
	Status    string `validate:"omitempty,oneof=ALL PENDING CONFIRMED CANCELLED all pending confirmed cancelled"`
}

func (q ListListingBookingsQuery) Key() string { return listListingBookingsKey }

func (q ListListingBookingsQuery) RequiredRole() string { return identity.RoleHost }

type ListListingBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Listings   domainlistings.Reader
}

func (h *ListListingBookingsHandler) Handle(ctx context.Context, q ListListingBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := handlersupport.LoadListing(execCtx, h.Listings, unit, q.ListingID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if err := handlersupport.EnsureHostAccess(execCtx, listing); err != nil {
		return dto.BookingCollection{}, err
	}
	bookings, err := unit.Bookings().ListByListing(execCtx, listing.ID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return dto.MapBookings(newestFirst(filterStatus(bookings, q.Status))), nil
}

type ListMyBookingsQuery struct {
	GuestID string `validate:"required"`
	Status  string `validate:"omitempty,oneof=ALL PENDING CONFIRMED CANCELLED all pending confirmed cancelled"`
}

func (q ListMyBookingsQuery) Key() string { return listMyBookingsKey }

func (q ListMyBookingsQuery) RequiresCaller() bool { return true }

type ListMyBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListMyBookingsHandler) Handle(ctx context.Context, q ListMyBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByGuest(execCtx, strings.TrimSpace(q.GuestID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return dto.MapBookings(newestFirst(filterStatus(bookings, q.Status))), nil
}

func filterStatus(items []*domainbooking.Booking, status string) []*domainbooking.Booking {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" || status == allStatusesFilterValue {
		return items
	}
	out := make([]*domainbooking.Booking, 0, len(items))
	for _, b := range items {
		if string(b.Status) == status {
			out = append(out, b)
		}
	}
	return out
}

func newestFirst(items []*domainbooking.Booking) []*domainbooking.Booking {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

var (
	_ queries.Handler[GetBookingQuery, dto.Booking]                    = (*GetBookingHandler)(nil)
	_ queries.Handler[ListListingBookingsQuery, dto.BookingCollection] = (*ListListingBookingsHandler)(nil)
	_ queries.Handler[ListMyBookingsQuery, dto.BookingCollection]      = (*ListMyBookingsHandler)(nil)
)
