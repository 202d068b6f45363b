package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	handlersupport "stayhub/internal/app/handlers/support"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainavailability "stayhub/internal/domain/availability"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainpricing "stayhub/internal/domain/pricing"
	domainrange "stayhub/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID       string
	ListingID       string    `validate:"required"`
	GuestID         string    `validate:"required"`
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	Guests          int       `validate:"gte=1"`
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &dto.Booking{} }

func (c RequestBookingCommand) RequiresCaller() bool { return true }

func (c RequestBookingCommand) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", c.GuestID, c.ListingID,
		c.CheckIn.Format(time.DateOnly), c.CheckOut.Format(time.DateOnly), c.Guests)
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Listings   domainlistings.Reader
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle validates the stay, rejects parties over the listing's capacity
// and dates taken by confirmed bookings, and prices the stay at the listing's current rate.
func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (dto.Booking, error) {
	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return dto.Booking{}, err
	}
	now := handlersupport.Now(h.Now)
	if err := domainbooking.ValidateStay(dr, now); err != nil {
		return dto.Booking{}, err
	}

	var result dto.Booking
	err = handlersupport.WithWriteUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := handlersupport.LoadListing(ctx, h.Listings, unit, cmd.ListingID)
		if err != nil {
			return err
		}
		if err := listing.Bookable(); err != nil {
			return err
		}
		if !listing.Accommodates(cmd.Guests) {
			return domainlistings.ErrOverCapacity
		}

		if err := unit.Bookings().ClaimCalendar(ctx, listing.ID); err != nil {
			return err
		}
		existing, err := unit.Bookings().ListByListing(ctx, listing.ID)
		if err != nil {
			return err
		}
		if !domainavailability.IsRangeAvailable(dr, domainbooking.OccupiedRanges(existing)) {
			return domainbooking.ErrRangeUnavailable
		}

		quote := domainpricing.PriceRange(dr, *listing.PricePerNight, listing.Surcharge())
		id := strings.TrimSpace(cmd.CommandID)
		if id == "" {
			id = uuid.NewString()
		}
		booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:        domainbooking.BookingID(id),
			ListingID: listing.ID,
			HostID:    listing.Host,
			GuestID:   cmd.GuestID,
			Range:     dr,
			Guests:    cmd.Guests,
			Quote:     quote,
			Currency:  listing.Currency,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		if err := outbox.RecordPending(ctx, h.Outbox, h.Encoder, booking); err != nil {
			return err
		}
		result = dto.MapBooking(booking)
		return nil
	})
	if err != nil {
		return dto.Booking{}, err
	}
	return result, nil
}

var (
	_ commands.Handler[RequestBookingCommand, dto.Booking] = (*RequestBookingHandler)(nil)
	_ middleware.IdempotentCommand                         = RequestBookingCommand{}
	_ middleware.Fingerprinter                             = RequestBookingCommand{}
)
