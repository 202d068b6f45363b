package booking

import (
	"time"

	"stayhub/internal/domain/listings"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID   BookingID             `json:"booking_id"`
	ListingID   listings.ListingID    `json:"listing_id"`
	GuestID     string                `json:"guest_id"`
	Range       daterange.DateRange   `json:"range"`
	GuestsCount int                   `json:"guests"`
	Quote       pricing.PricingResult `json:"quote"`
	Total       money.Money           `json:"total"`
	At          time.Time             `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type PaymentRequested struct {
	BookingID BookingID   `json:"booking_id"`
	IntentID  string      `json:"intent_id"`
	Amount    money.Money `json:"amount"`
	Method    string      `json:"method"`
	At        time.Time   `json:"at"`
}

func (e PaymentRequested) EventName() string     { return "booking.payment_requested" }
func (e PaymentRequested) AggregateID() string   { return string(e.BookingID) }
func (e PaymentRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID  BookingID           `json:"booking_id"`
	ListingID  listings.ListingID  `json:"listing_id"`
	Range      daterange.DateRange `json:"range"`
	Total      money.Money         `json:"total"`
	PaymentRef string              `json:"payment_ref"`
	At         time.Time           `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

// BookingCancelled carries ReleasedNights when the stay had been confirmed and
// its nights return to the calendar.
type BookingCancelled struct {
	BookingID      BookingID           `json:"booking_id"`
	ListingID      listings.ListingID  `json:"listing_id"`
	Range          daterange.DateRange `json:"range"`
	Reason         string              `json:"reason,omitempty"`
	ReleasedNights bool                `json:"released_nights"`
	At             time.Time           `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
