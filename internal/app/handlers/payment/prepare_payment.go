package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	handlersupport "stayhub/internal/app/handlers/support"
	"stayhub/internal/app/identity"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainpayment "stayhub/internal/domain/payment"
)

const preparePaymentKey = "payment.prepare"

// PreparePaymentCommand creates the payment order a guest pays a pending
// booking with. The provider reports the outcome asynchronously.
type PreparePaymentCommand struct {
	BookingID       string `validate:"required"`
	Currency        string `validate:"required"`
	Method          string `validate:"required"`
	IdempotencyKeyV string
}

func (c PreparePaymentCommand) Key() string { return preparePaymentKey }

func (c PreparePaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c PreparePaymentCommand) ResultPrototype() any { return &dto.PaymentIntent{} }

func (c PreparePaymentCommand) RequiredRole() string { return identity.RoleGuest }

func (c PreparePaymentCommand) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s", c.BookingID, strings.ToUpper(c.Currency), strings.ToUpper(c.Method))
}

type PreparePaymentHandler struct {
	UoWFactory uow.UoWFactory
	Listings   domainlistings.Reader
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *PreparePaymentHandler) Handle(ctx context.Context, cmd PreparePaymentCommand) (dto.PaymentIntent, error) {
	caller, err := identity.PrincipalFrom(ctx)
	if err != nil {
		return dto.PaymentIntent{}, err
	}
	now := handlersupport.Now(h.Now)

	var result dto.PaymentIntent
	err = handlersupport.WithWriteUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
		if err != nil {
			return err
		}
		if booking.GuestID != caller.UserID {
			return domainbooking.ErrNotFound
		}

		var rate *float64
		if booking.Quote.Total <= 0 {
			listing, err := handlersupport.LoadListing(ctx, h.Listings, unit, string(booking.ListingID))
			if err != nil {
				return err
			}
			rate = listing.PricePerNight
		}

		intent, err := domainpayment.NewIntent(domainpayment.IntentParams{
			ID:              uuid.NewString(),
			BookingID:       string(booking.ID),
			Quote:           booking.Quote,
			PricePerNight:   rate,
			BookingCurrency: booking.Total.Currency,
			Currency:        cmd.Currency,
			Method:          cmd.Method,
			Now:             now,
		})
		if err != nil {
			return err
		}
		if err := booking.RequestPayment(intent.ID, intent.Amount, string(intent.Method), now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		if err := outbox.RecordPending(ctx, h.Outbox, h.Encoder, booking); err != nil {
			return err
		}
		result = dto.MapPaymentIntent(intent)
		return nil
	})
	if err != nil {
		return dto.PaymentIntent{}, err
	}
	return result, nil
}

var (
	_ commands.Handler[PreparePaymentCommand, dto.PaymentIntent] = (*PreparePaymentHandler)(nil)
	_ middleware.IdempotentCommand                               = PreparePaymentCommand{}
)
