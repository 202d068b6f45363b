package dto

import (
	"time"

	domainbooking "stayhub/internal/domain/booking"
	"stayhub/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

type Booking struct {
	ID                 string    `json:"id"`
	ListingID          string    `json:"listing_id"`
	GuestID            string    `json:"guest_id"`
	CheckIn            string    `json:"check_in"`
	CheckOut           string    `json:"check_out"`
	Guests             int       `json:"guests"`
	Nights             int       `json:"nights"`
	NightsWithIncrease int       `json:"nights_with_increase"`
	Total              MoneyDTO  `json:"total"`
	Status             string    `json:"status"`
	PaymentRef         string    `json:"payment_ref,omitempty"`
	CancelReason       string    `json:"cancel_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	return Booking{
		ID:                 string(b.ID),
		ListingID:          string(b.ListingID),
		GuestID:            b.GuestID,
		CheckIn:            FormatDate(b.Range.CheckIn),
		CheckOut:           FormatDate(b.Range.CheckOut),
		Guests:             b.Guests,
		Nights:             b.Quote.Nights,
		NightsWithIncrease: b.Quote.NightsWithIncrease,
		Total:              MapMoney(b.Total),
		Status:             string(b.Status),
		PaymentRef:         b.PaymentRef,
		CancelReason:       b.CancelReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func MapBookings(items []*domainbooking.Booking) BookingCollection {
	out := BookingCollection{Items: make([]Booking, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, MapBooking(b))
	}
	return out
}

type LodgingStats struct {
	ListingID         string    `json:"listing_id"`
	TotalBookings     int       `json:"total_bookings"`
	PendingBookings   int       `json:"pending_bookings"`
	ConfirmedBookings int       `json:"confirmed_bookings"`
	CancelledBookings int       `json:"cancelled_bookings"`
	Revenue           MoneyDTO  `json:"revenue"`
	OccupancyRate     int       `json:"occupancy_rate"`
	RecentBookings    []Booking `json:"recent_bookings"`
}

func MapLodgingStats(listingID, currency string, s domainbooking.LodgingStats) LodgingStats {
	recent := MapBookings(s.Recent).Items
	return LodgingStats{
		ListingID:         listingID,
		TotalBookings:     s.TotalBookings,
		PendingBookings:   s.PendingBookings,
		ConfirmedBookings: s.ConfirmedBookings,
		CancelledBookings: s.CancelledBookings,
		Revenue:           MoneyDTO{Amount: s.Revenue, Currency: currency},
		OccupancyRate:     s.OccupancyRate,
		RecentBookings:    recent,
	}
}
