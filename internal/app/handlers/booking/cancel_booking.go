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
	domainbooking "stayhub/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) RequiresCaller() bool { return true }

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle lets the guest or the listing's host cancel. Other callers get
// ErrNotFound so booking ids cannot be enumerated.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (dto.Booking, error) {
	var result dto.Booking
	err := handlersupport.WithWriteUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
		if err != nil {
			return err
		}
		if err := ensureParticipant(ctx, booking); err != nil {
			return err
		}
		if err := booking.Cancel(cmd.Reason, handlersupport.Now(h.Now)); err != nil {
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

var _ commands.Handler[CancelBookingCommand, dto.Booking] = (*CancelBookingHandler)(nil)
