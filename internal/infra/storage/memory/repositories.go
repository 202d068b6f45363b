package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/events"
)

// ListingRepository keeps listings in memory. Stored values are copies, so
// callers never share state with the repository.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlistings.ListingID]*domainlistings.Listing)}
}

func (r *ListingRepository) ByID(_ context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return cloneListing(listing), nil
}

func (r *ListingRepository) Save(_ context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stored int64
	if cur, ok := r.items[listing.ID]; ok {
		stored = cur.Version
	}
	if stored != listing.Version {
		return domainlistings.ErrConcurrentUpdate
	}
	listing.Version++
	r.items[listing.ID] = cloneListing(listing)
	return nil
}

func (r *ListingRepository) Search(_ context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	p := params.Normalized()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0, len(r.items))
	for _, l := range r.items {
		if p.Matches(l) {
			out = append(out, cloneListing(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	cp := *l
	if l.PricePerNight != nil {
		v := *l.PricePerNight
		cp.PricePerNight = &v
	}
	return &cp
}

// BookingRepository keeps bookings in memory with optimistic versioning.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

// Save stores booking when its version matches the stored one and bumps it.
func (r *BookingRepository) Save(_ context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := checkVersion(r.items[booking.ID], booking); err != nil {
		return err
	}
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

// ClaimCalendar is a no-op: write units already hold the factory lock.
func (r *BookingRepository) ClaimCalendar(context.Context, domainlistings.ListingID) error {
	return nil
}

func (r *BookingRepository) ListByListing(_ context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.ListingID == listingID }), nil
}

func (r *BookingRepository) ListByGuest(_ context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.GuestID == guestID }), nil
}

func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out
}

// apply writes a batch staged by a unit of work, provided no stored booking
// moved past the version the unit first read.
func (r *BookingRepository) apply(batch []*domainbooking.Booking, baseVersions map[domainbooking.BookingID]int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range batch {
		var storedVersion int64
		if stored := r.items[b.ID]; stored != nil {
			storedVersion = stored.Version
		}
		if storedVersion != baseVersions[b.ID] {
			return domainbooking.ErrConcurrentUpdate
		}
	}
	for _, b := range batch {
		r.items[b.ID] = cloneBooking(b)
	}
	return nil
}

func checkVersion(stored, incoming *domainbooking.Booking) error {
	if stored == nil {
		if incoming.Version != 0 {
			return domainbooking.ErrConcurrentUpdate
		}
		return nil
	}
	if stored.Version != incoming.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	return nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

func sortBookings(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
