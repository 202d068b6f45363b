package dto

import (
	"time"

	domainlistings "stayhub/internal/domain/listings"
)

type Listing struct {
	ID              string    `json:"id"`
	HostID          string    `json:"host_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	City            string    `json:"city,omitempty"`
	Capacity        int       `json:"capacity"`
	PricePerNight   *float64  `json:"price_per_night"`
	IncreaseFromDay string    `json:"increase_from_day,omitempty"`
	SurchargeActive bool      `json:"surcharge_active"`
	Currency        string    `json:"currency"`
	State           string    `json:"state"`
	Version         int64     `json:"version"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListingCatalog is one page of search results; Total counts every match.
type ListingCatalog struct {
	Items  []Listing `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

func MapListing(l *domainlistings.Listing) Listing {
	surcharge := l.Surcharge()
	return Listing{
		ID:              string(l.ID),
		HostID:          string(l.Host),
		Title:           l.Title,
		Description:     l.Description,
		City:            l.City,
		Capacity:        l.Capacity,
		PricePerNight:   l.PricePerNight,
		IncreaseFromDay: surcharge.String(),
		SurchargeActive: surcharge.Active(),
		Currency:        l.Currency,
		State:           string(l.State),
		Version:         l.Version,
		UpdatedAt:       l.UpdatedAt,
	}
}

func MapListingCatalog(items []*domainlistings.Listing, total int, p domainlistings.SearchParams) ListingCatalog {
	out := ListingCatalog{Items: make([]Listing, 0, len(items)), Total: total, Limit: p.Limit, Offset: p.Offset}
	for _, l := range items {
		out.Items = append(out.Items, MapListing(l))
	}
	return out
}
