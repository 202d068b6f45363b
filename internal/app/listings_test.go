package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	bookingapp "stayhub/internal/app/handlers/booking"
	listingapp "stayhub/internal/app/handlers/listings"
	paymentapp "stayhub/internal/app/handlers/payment"
	"stayhub/internal/app/identity"
	"stayhub/internal/app/queries"
	domainlistings "stayhub/internal/domain/listings"
	domainpayment "stayhub/internal/domain/payment"
	"stayhub/internal/infra/storage/memory"
)

func ptr[T any](v T) *T { return &v }

func (f fixture) createListing(ctx context.Context, cmd listingapp.CreateListingCommand) (dto.Listing, error) {
	return commands.Dispatch[listingapp.CreateListingCommand, dto.Listing](ctx, f.buses.Commands, cmd)
}

func (f fixture) search(q listingapp.SearchCatalogQuery) (dto.ListingCatalog, error) {
	return queries.Ask[listingapp.SearchCatalogQuery, dto.ListingCatalog](context.Background(), f.buses.Queries, q)
}

func TestHostCreatesAndEditsListing(t *testing.T) {
	f := newFixture(t)
	host := as(t, "host-2", "host", "")

	created, err := f.createListing(host, listingapp.CreateListingCommand{
		Title:           "Loft en Laureles",
		City:            "Medellin",
		Capacity:        2,
		PricePerNight:   ptr(150.0),
		IncreaseFromDay: "20",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "host-2", created.HostID)
	assert.Equal(t, "COP", created.Currency, "default currency applies")
	assert.True(t, created.SurchargeActive)
	assert.EqualValues(t, 1, created.Version)

	edited, err := commands.Dispatch[listingapp.UpdateListingCommand, dto.Listing](host, f.buses.Commands, listingapp.UpdateListingCommand{
		ListingID:       created.ID,
		IncreaseFromDay: ptr(""),
		State:           ptr("suspended"),
	})
	require.NoError(t, err)
	assert.False(t, edited.SurchargeActive)
	assert.Equal(t, "SUSPENDED", edited.State)
	assert.Equal(t, "Loft en Laureles", edited.Title)
	assert.EqualValues(t, 2, edited.Version)

	// Suspended listings are hidden from everyone but their host.
	_, err = queries.Ask[listingapp.GetListingQuery, dto.Listing](as(t, "guest-1", "guest", ""), f.buses.Queries, listingapp.GetListingQuery{ListingID: created.ID})
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)
	own, err := queries.Ask[listingapp.GetListingQuery, dto.Listing](host, f.buses.Queries, listingapp.GetListingQuery{ListingID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "SUSPENDED", own.State)
}

func TestListingEditsAreGuarded(t *testing.T) {
	f := newFixture(t)

	_, err := f.createListing(as(t, "guest-1", "guest", ""), listingapp.CreateListingCommand{Title: "Mine"})
	assert.ErrorIs(t, err, identity.ErrForbidden)

	_, err = f.createListing(as(t, "host-2", "host", ""), listingapp.CreateListingCommand{Title: "Euro flat", Currency: "EUR"})
	assert.ErrorIs(t, err, domainpayment.ErrUnsupportedCurrency)

	_, err = commands.Dispatch[listingapp.UpdateListingCommand, dto.Listing](as(t, "host-2", "host", ""), f.buses.Commands, listingapp.UpdateListingCommand{
		ListingID: "lodge-1",
		Title:     ptr("Taken over"),
	})
	assert.ErrorIs(t, err, domainlistings.ErrNotOwner)

	_, err = commands.Dispatch[listingapp.UpdateListingCommand, dto.Listing](as(t, "host-1", "host", ""), f.buses.Commands, listingapp.UpdateListingCommand{
		ListingID:       "lodge-1",
		IncreaseFromDay: ptr("soon"),
	})
	assert.ErrorIs(t, err, domainlistings.ErrInvalidSurcharge)
}

func TestSearchCatalogFiltersByStayAvailability(t *testing.T) {
	f := newFixture(t)
	host := as(t, "host-2", "host", "")
	_, err := f.createListing(host, listingapp.CreateListingCommand{
		Title: "Cabana del lago", City: "Guatape", Capacity: 6, PricePerNight: ptr(300.0),
	})
	require.NoError(t, err)
	_, err = f.createListing(host, listingapp.CreateListingCommand{
		Title: "Borrador", City: "Guatape", PricePerNight: ptr(50.0), State: "draft",
	})
	require.NoError(t, err)

	all, err := f.search(listingapp.SearchCatalogQuery{City: "guatape"})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total, "drafts are not listed")

	cheap, err := f.search(listingapp.SearchCatalogQuery{MaxPrice: ptr(200.0)})
	require.NoError(t, err)
	require.Len(t, cheap.Items, 1)
	assert.Equal(t, "lodge-1", cheap.Items[0].ID)

	crowd, err := f.search(listingapp.SearchCatalogQuery{Text: "cabana", Guests: 7})
	require.NoError(t, err)
	assert.Zero(t, crowd.Total)

	booked, err := f.request(as(t, "guest-1", "guest", ""), 10, 13, "")
	require.NoError(t, err)
	_, err = f.confirm(booked.ID, "pay-1")
	require.NoError(t, err)

	free, err := f.search(listingapp.SearchCatalogQuery{City: "Guatape", CheckIn: day(12), CheckOut: day(14)})
	require.NoError(t, err)
	require.Equal(t, 1, free.Total)
	assert.Equal(t, "Cabana del lago", free.Items[0].Title)

	after, err := f.search(listingapp.SearchCatalogQuery{City: "Guatape", CheckIn: day(13), CheckOut: day(14)})
	require.NoError(t, err)
	assert.Equal(t, 2, after.Total, "checkout night is free again")

	paged, err := f.search(listingapp.SearchCatalogQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, paged.Total)
	assert.Len(t, paged.Items, 1)
}

func TestRequestBookingRejectsPartyOverCapacity(t *testing.T) {
	f := newFixture(t)
	host := as(t, "host-2", "host", "")
	small, err := f.createListing(host, listingapp.CreateListingCommand{Title: "Studio", Capacity: 1, PricePerNight: ptr(80.0)})
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.RequestBookingCommand, dto.Booking](as(t, "guest-1", "guest", ""), f.buses.Commands, bookingapp.RequestBookingCommand{
		ListingID: small.ID,
		GuestID:   "guest-1",
		CheckIn:   day(10),
		CheckOut:  day(12),
		Guests:    2,
	})
	assert.ErrorIs(t, err, domainlistings.ErrOverCapacity)
}

func TestPaymentOptionsListMethodsAndCurrencies(t *testing.T) {
	f := newFixture(t)
	opts, err := queries.Ask[paymentapp.PaymentOptionsQuery, dto.PaymentOptions](context.Background(), f.buses.Queries, paymentapp.PaymentOptionsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"COP", "USD"}, opts.Currencies)
	assert.Len(t, opts.Methods, len(domainpayment.Methods()))
	assert.Contains(t, opts.Methods, "NEQUI")
}

func TestRemoteCatalogIsReadOnly(t *testing.T) {
	listings := memory.NewListingRepository()
	box := memory.NewOutbox()
	buses := Build(Deps{
		UoWFactory:      memory.NewFactory(listings, memory.NewBookingRepository(), box),
		Outbox:          box,
		Listings:        listings,
		DefaultCurrency: "COP",
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := queries.Ask[listingapp.SearchCatalogQuery, dto.ListingCatalog](context.Background(), buses.Queries, listingapp.SearchCatalogQuery{})
	assert.ErrorIs(t, err, listingapp.ErrRemoteCatalog)
	_, err = commands.Dispatch[listingapp.CreateListingCommand, dto.Listing](as(t, "host-2", "host", ""), buses.Commands, listingapp.CreateListingCommand{Title: "Loft"})
	assert.ErrorIs(t, err, listingapp.ErrRemoteCatalog)
}
