package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/listings"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/events"
	"stayhub/internal/domain/shared/money"
)

var (
	ErrInvalidGuests      = errors.New("booking: guests count must be positive")
	ErrGuestRequired      = errors.New("booking: guest id required")
	ErrInvalidState       = errors.New("booking: invalid state transition")
	ErrNotFound           = errors.New("booking: not found")
	ErrCheckInInPast      = errors.New("booking: check-in date is in the past")
	ErrRangeUnavailable   = errors.New("booking: dates overlap a confirmed booking")
	ErrZeroTotal          = errors.New("booking: quoted total must be positive")
	ErrPaymentRefRequired = errors.New("booking: payment reference required to confirm")
	ErrConcurrentUpdate   = errors.New("booking: concurrent update")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

type Booking struct {
	ID           BookingID
	ListingID    listings.ListingID
	HostID       listings.HostID
	GuestID      string
	Range        daterange.DateRange
	Guests       int
	Quote        pricing.PricingResult
	Total        money.Money
	Status       Status
	PaymentRef   string
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

// Repository persists bookings. Save fails with ErrConcurrentUpdate when the
// stored version moved since the aggregate was loaded.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// ClaimCalendar marks the listing's calendar as written by the current
	// unit of work. Two units that claim the same calendar cannot both
	// commit; the loser fails with ErrConcurrentUpdate.
	ClaimCalendar(ctx context.Context, listingID listings.ListingID) error
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	ListingID listings.ListingID
	HostID    listings.HostID
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Quote     pricing.PricingResult
	Currency  string
	CreatedAt time.Time
}

// ValidateStay checks what the pricing engine leaves to its callers: the
// stay must cover at least one night and must not start before today.
// "Today" is the calendar date of now in now's own location.
func ValidateStay(r daterange.DateRange, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	today := daterange.Day(now)
	if daterange.Day(r.CheckIn).Before(today) {
		return ErrCheckInInPast
	}
	return nil
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Quote.Total <= 0 {
		return nil, ErrZeroTotal
	}
	total, err := money.New(params.Quote.Total, params.Currency)
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		HostID:    params.HostID,
		GuestID:   strings.TrimSpace(params.GuestID),
		Range:     daterange.Of(params.Range.CheckIn, params.Range.CheckOut),
		Guests:    params.Guests,
		Quote:     params.Quote,
		Total:     total,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, GuestsCount: b.Guests, Quote: b.Quote, Total: b.Total, At: now})
	return b, nil
}

// RequestPayment records that a payment intent was handed to the provider.
func (b *Booking) RequestPayment(intentID string, amount money.Money, method string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.UpdatedAt = now.UTC()
	b.Record(PaymentRequested{BookingID: b.ID, IntentID: intentID, Amount: amount, Method: method, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Confirm(paymentRef string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	if strings.TrimSpace(paymentRef) == "" {
		return ErrPaymentRefRequired
	}
	b.PaymentRef = strings.TrimSpace(paymentRef)
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, Total: b.Total, PaymentRef: b.PaymentRef, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.Status {
	case StatusPending, StatusConfirmed:
	default:
		return ErrInvalidState
	}
	wasConfirmed := b.Status == StatusConfirmed
	b.Status = StatusCancelled
	b.CancelReason = strings.TrimSpace(reason)
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, Reason: b.CancelReason, ReleasedNights: wasConfirmed, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Occupies() bool {
	return b.Status == StatusConfirmed
}

// OccupiedRanges keeps the ranges of confirmed bookings; pending and
// cancelled stays never block the calendar.
func OccupiedRanges(bookings []*Booking) []daterange.DateRange {
	out := make([]daterange.DateRange, 0, len(bookings))
	for _, b := range bookings {
		if b == nil || !b.Occupies() {
			continue
		}
		out = append(out, b.Range)
	}
	return out
}
