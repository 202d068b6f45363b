package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
)

var (
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
)

// Factory hands out units over the in-memory repositories. Write units are
// serialised: each holds the factory's write lock until Commit or Rollback,
// which gives check-then-save sequences the isolation a database
// transaction would.
type Factory struct {
	listings *ListingRepository
	bookings *BookingRepository
	outbox   *Outbox
	writeMu  sync.Mutex
}

func NewFactory(listings *ListingRepository, bookings *BookingRepository, box *Outbox) *Factory {
	return &Factory{listings: listings, bookings: bookings, outbox: box}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f == nil || f.listings == nil || f.bookings == nil {
		return nil, ErrFactoryMisconfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u := &Unit{factory: f, readOnly: opts.ReadOnly}
	if !opts.ReadOnly {
		f.writeMu.Lock()
		u.bookings = &stagedBookings{
			base:         f.bookings,
			pending:      map[domainbooking.BookingID]*domainbooking.Booking{},
			baseVersions: map[domainbooking.BookingID]int64{},
		}
	}
	return u, nil
}

type unitCtxKey struct{}

// Unit stages booking writes and outbox records until Commit.
type Unit struct {
	factory  *Factory
	readOnly bool
	bookings *stagedBookings
	staged   []appoutbox.EventRecord
	done     bool
	once     sync.Once
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, unitCtxKey{}, u)
}

func unitFromContext(ctx context.Context) (*Unit, bool) {
	u, ok := ctx.Value(unitCtxKey{}).(*Unit)
	return u, ok && u != nil && !u.readOnly && !u.done
}

func (u *Unit) Listings() domainlistings.Repository {
	return u.factory.listings
}

func (u *Unit) Bookings() domainbooking.Repository {
	if u.readOnly {
		return u.factory.bookings
	}
	return u.bookings
}

func (u *Unit) stage(rec appoutbox.EventRecord) {
	u.staged = append(u.staged, rec)
}

func (u *Unit) Commit(context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	defer u.release()
	if u.readOnly {
		return nil
	}
	if err := u.factory.bookings.apply(u.bookings.batch(), u.bookings.baseVersions); err != nil {
		return err
	}
	if u.factory.outbox != nil {
		u.factory.outbox.append(u.staged...)
	}
	return nil
}

func (u *Unit) Rollback(context.Context) error {
	if u.done {
		return nil
	}
	u.release()
	return nil
}

func (u *Unit) release() {
	u.once.Do(func() {
		u.done = true
		if !u.readOnly {
			u.factory.writeMu.Unlock()
		}
	})
}

// stagedBookings overlays uncommitted saves on the shared repository.
type stagedBookings struct {
	base         *BookingRepository
	pending      map[domainbooking.BookingID]*domainbooking.Booking
	baseVersions map[domainbooking.BookingID]int64
	order        []domainbooking.BookingID
}

func (s *stagedBookings) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if b, ok := s.pending[id]; ok {
		return cloneBooking(b), nil
	}
	return s.base.ByID(ctx, id)
}

func (s *stagedBookings) Save(ctx context.Context, booking *domainbooking.Booking) error {
	current, ok := s.pending[booking.ID]
	if !ok {
		stored, err := s.base.ByID(ctx, booking.ID)
		switch {
		case errors.Is(err, domainbooking.ErrNotFound):
			stored = nil
		case err != nil:
			return err
		}
		current = stored
		if stored != nil {
			s.baseVersions[booking.ID] = stored.Version
		}
		s.order = append(s.order, booking.ID)
	}
	if err := checkVersion(current, booking); err != nil {
		return err
	}
	booking.Version++
	s.pending[booking.ID] = cloneBooking(booking)
	return nil
}

func (s *stagedBookings) ClaimCalendar(ctx context.Context, listingID domainlistings.ListingID) error {
	return s.base.ClaimCalendar(ctx, listingID)
}

func (s *stagedBookings) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	items, err := s.base.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return s.merge(items, func(b *domainbooking.Booking) bool { return b.ListingID == listingID }), nil
}

func (s *stagedBookings) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	items, err := s.base.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	return s.merge(items, func(b *domainbooking.Booking) bool { return b.GuestID == guestID }), nil
}

func (s *stagedBookings) merge(items []*domainbooking.Booking, keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	if len(s.pending) == 0 {
		return items
	}
	out := make([]*domainbooking.Booking, 0, len(items)+len(s.pending))
	for _, b := range items {
		if _, staged := s.pending[b.ID]; !staged {
			out = append(out, b)
		}
	}
	for _, id := range s.order {
		if b := s.pending[id]; keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out
}

func (s *stagedBookings) batch() []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pending[id])
	}
	return out
}

var (
	_ uow.UoWFactory           = (*Factory)(nil)
	_ uow.ContextInjector      = (*Unit)(nil)
	_ domainbooking.Repository = (*stagedBookings)(nil)
)
