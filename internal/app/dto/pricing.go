package dto

import (
	"time"

	domainpricing "stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/daterange"
)

// Quote is a priced stay. A zero quote means the selection was incomplete.
type Quote struct {
	ListingID          string `json:"listing_id,omitempty"`
	CheckIn            string `json:"check_in,omitempty"`
	CheckOut           string `json:"check_out,omitempty"`
	Total              int64  `json:"total"`
	NightsWithIncrease int    `json:"nights_with_increase"`
	Nights             int    `json:"nights"`
	Currency           string `json:"currency,omitempty"`
	IncreaseFromDay    string `json:"increase_from_day,omitempty"`
}

func MapQuote(listingID string, from, to time.Time, result domainpricing.PricingResult, currency string, surcharge domainpricing.SurchargeConfig) Quote {
	return Quote{
		ListingID:          listingID,
		CheckIn:            FormatDate(from),
		CheckOut:           FormatDate(to),
		Total:              result.Total,
		NightsWithIncrease: result.NightsWithIncrease,
		Nights:             result.Nights,
		Currency:           currency,
		IncreaseFromDay:    surcharge.String(),
	}
}

// FormatDate renders a calendar day; the zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return daterange.Day(t).Format(time.DateOnly)
}
