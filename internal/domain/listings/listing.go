package listings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"stayhub/internal/domain/payment"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("listings: not found")
	ErrIDRequired       = errors.New("listings: id is required")
	ErrTitleRequired    = errors.New("listings: title is required")
	ErrNightlyRate      = errors.New("listings: price per night must be a non-negative number")
	ErrInvalidCurrency  = errors.New("listings: currency must be a 3-letter code")
	ErrNotBookable      = errors.New("listings: listing is not open for bookings")
	ErrRateMissing      = errors.New("listings: listing has no nightly rate")
	ErrNotOwner         = errors.New("listings: listing not owned by caller")
	ErrInvalidSurcharge = errors.New("listings: increase_from_day must be a number")
	ErrCapacity         = errors.New("listings: capacity must not be negative")
	ErrInvalidState     = errors.New("listings: unknown listing state")
	ErrOverCapacity     = errors.New("listings: more guests than the listing accommodates")
	ErrConcurrentUpdate = errors.New("listings: listing was modified concurrently")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Listing is a lodging as far as pricing and booking care about it. A nil
// PricePerNight means the host has not published a rate yet; a zero
// Capacity means no guest limit.
type Listing struct {
	ID              ListingID
	Host            HostID
	Title           string
	Description     string
	City            string
	Capacity        int
	PricePerNight   *float64
	IncreaseFromDay string
	Currency        string
	State           ListingState
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Reader interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
}

type Repository interface {
	Reader
	// Save stores listing when its Version matches the stored one and bumps
	// it; a stale version fails with ErrConcurrentUpdate.
	Save(ctx context.Context, listing *Listing) error
	// Search returns every listing matching params, ordered by id.
	Search(ctx context.Context, params SearchParams) ([]*Listing, error)
}

type CreateListingParams struct {
	ID              ListingID
	Host            HostID
	Title           string
	Description     string
	City            string
	Capacity        int
	PricePerNight   *float64
	IncreaseFromDay string
	Currency        string
	State           ListingState
	Now             time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	state := params.State
	if state == "" {
		state = ListingActive
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:        ListingID(strings.TrimSpace(string(params.ID))),
		Host:      params.Host,
		State:     state,
		CreatedAt: now,
	}
	err := l.Update(UpdateListingParams{
		Title:           &params.Title,
		Description:     &params.Description,
		City:            &params.City,
		Capacity:        &params.Capacity,
		PricePerNight:   params.PricePerNight,
		IncreaseFromDay: &params.IncreaseFromDay,
		Currency:        &params.Currency,
		State:           &state,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateListingParams carries an edit. Nil fields are left unchanged.
type UpdateListingParams struct {
	Title           *string
	Description     *string
	City            *string
	Capacity        *int
	PricePerNight   *float64
	IncreaseFromDay *string
	Currency        *string
	State           *ListingState
	Now             time.Time
}

// Update validates the whole edit before applying any of it.
func (l *Listing) Update(p UpdateListingParams) error {
	next := *l
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if next.Title == "" {
		return ErrTitleRequired
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.City != nil {
		next.City = strings.TrimSpace(*p.City)
	}
	if p.Capacity != nil {
		if *p.Capacity < 0 {
			return ErrCapacity
		}
		next.Capacity = *p.Capacity
	}
	if v := p.PricePerNight; v != nil {
		if *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			return ErrNightlyRate
		}
		rate := *v
		next.PricePerNight = &rate
	}
	if p.IncreaseFromDay != nil {
		raw := strings.TrimSpace(*p.IncreaseFromDay)
		if raw != "" && !pricing.ParseSurcharge(raw).Active() {
			return ErrInvalidSurcharge
		}
		next.IncreaseFromDay = raw
	}
	if p.Currency != nil {
		code, err := payableCurrency(*p.Currency)
		if err != nil {
			return err
		}
		next.Currency = code
	}
	if p.State != nil {
		switch *p.State {
		case ListingDraft, ListingActive, ListingSuspended:
			next.State = *p.State
		default:
			return ErrInvalidState
		}
	}
	next.UpdatedAt = p.Now.UTC()
	*l = next
	return nil
}

// payableCurrency normalises raw and keeps it only when guests can pay in it.
func payableCurrency(raw string) (string, error) {
	code, err := money.Code(raw)
	if err != nil {
		return "", ErrInvalidCurrency
	}
	if _, err := payment.ParseCurrency(code); err != nil {
		return "", fmt.Errorf("listings: %w %s", err, code)
	}
	return code, nil
}

// Accommodates reports whether guests fit the listing's capacity.
func (l *Listing) Accommodates(guests int) bool {
	return l.Capacity == 0 || guests <= l.Capacity
}

// Surcharge parses the stored threshold. Listings without one never surcharge.
func (l *Listing) Surcharge() pricing.SurchargeConfig {
	return pricing.ParseSurcharge(l.IncreaseFromDay)
}

// Bookable reports whether guests may request stays.
func (l *Listing) Bookable() error {
	if l.State != ListingActive {
		return ErrNotBookable
	}
	if l.PricePerNight == nil {
		return ErrRateMissing
	}
	return nil
}

func (l *Listing) OwnedBy(host HostID) bool {
	return host != "" && l.Host == host
}
