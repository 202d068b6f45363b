package booking

import (
	"context"
	"strings"
	"time"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	handlersupport "stayhub/internal/app/handlers/support"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainavailability "stayhub/internal/domain/availability"
	domainbooking "stayhub/internal/domain/booking"
)

const confirmBookingKey = "booking.confirm"

// ConfirmBookingCommand is issued when the payment provider approves a
// booking's payment.
type ConfirmBookingCommand struct {
	BookingID  string `validate:"required"`
	PaymentRef string `validate:"required"`
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

type ConfirmBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle confirms a pending booking. Redelivery of the same approval is a
// no-op. The listing's calendar is claimed before the nights are re-checked
// against other confirmed stays, so concurrent confirms for one listing
// serialise and two confirmed bookings never overlap.
func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (dto.Booking, error) {
	var result dto.Booking
	err := handlersupport.WithWriteUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
		if err != nil {
			return err
		}
		if booking.Status == domainbooking.StatusConfirmed && booking.PaymentRef == strings.TrimSpace(cmd.PaymentRef) {
			result = dto.MapBooking(booking)
			return nil
		}

		if err := unit.Bookings().ClaimCalendar(ctx, booking.ListingID); err != nil {
			return err
		}
		siblings, err := unit.Bookings().ListByListing(ctx, booking.ListingID)
		if err != nil {
			return err
		}
		others := make([]*domainbooking.Booking, 0, len(siblings))
		for _, b := range siblings {
			if b.ID != booking.ID {
				others = append(others, b)
			}
		}
		if !domainavailability.IsRangeAvailable(booking.Range, domainbooking.OccupiedRanges(others)) {
			return domainbooking.ErrRangeUnavailable
		}

		if err := booking.Confirm(cmd.PaymentRef, handlersupport.Now(h.Now)); err != nil {
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

var _ commands.Handler[ConfirmBookingCommand, dto.Booking] = (*ConfirmBookingHandler)(nil)
