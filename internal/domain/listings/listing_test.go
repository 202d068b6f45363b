package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/domain/payment"
)

func TestNewListing(t *testing.T) {
	price := 180000.0
	l, err := NewListing(CreateListingParams{
		ID:              " lodge-1 ",
		Host:            "host-1",
		Title:           "  Casa Azul ",
		PricePerNight:   &price,
		IncreaseFromDay: " 15 ",
		Currency:        "cop",
		Now:             time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, ListingID("lodge-1"), l.ID)
	assert.Equal(t, "Casa Azul", l.Title)
	assert.Equal(t, "COP", l.Currency)
	assert.Equal(t, ListingActive, l.State)
	assert.NoError(t, l.Bookable())

	price = 1
	assert.Equal(t, 180000.0, *l.PricePerNight)

	cfg := l.Surcharge()
	v, ok := cfg.IncreaseFromDay()
	assert.True(t, ok)
	assert.Equal(t, 15.0, v)
}

func TestNewListing_Validation(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name   string
		params CreateListingParams
		err    error
	}{
		{"missing id", CreateListingParams{Title: "x", Currency: "COP"}, ErrIDRequired},
		{"missing title", CreateListingParams{ID: "l", Currency: "COP"}, ErrTitleRequired},
		{"negative price", CreateListingParams{ID: "l", Title: "x", Currency: "COP", PricePerNight: &negative}, ErrNightlyRate},
		{"bad currency", CreateListingParams{ID: "l", Title: "x", Currency: "PESOS"}, ErrInvalidCurrency},
		{"currency guests cannot pay in", CreateListingParams{ID: "l", Title: "x", Currency: "EUR"}, payment.ErrUnsupportedCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewListing(tt.params)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestListing_NoRateAndNoSurcharge(t *testing.T) {
	l, err := NewListing(CreateListingParams{ID: "l", Title: "x", Currency: "USD", State: ListingSuspended})
	require.NoError(t, err)
	assert.Nil(t, l.PricePerNight)
	assert.False(t, l.Surcharge().Active())
	assert.ErrorIs(t, l.Bookable(), ErrNotBookable)
	assert.False(t, l.OwnedBy(""))
}

func TestListing_Update(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	l, err := NewListing(CreateListingParams{ID: "l", Title: "Cabin", Currency: "COP", Now: created})
	require.NoError(t, err)

	edited := created.Add(time.Hour)
	rate, threshold, capacity := 120000.0, "20", 4
	require.NoError(t, l.Update(UpdateListingParams{
		PricePerNight:   &rate,
		IncreaseFromDay: &threshold,
		Capacity:        &capacity,
		Now:             edited,
	}))
	assert.Equal(t, "Cabin", l.Title, "unset fields are kept")
	assert.Equal(t, 120000.0, *l.PricePerNight)
	assert.True(t, l.Surcharge().Active())
	assert.Equal(t, created, l.CreatedAt)
	assert.Equal(t, edited, l.UpdatedAt)
	assert.True(t, l.Accommodates(4))
	assert.False(t, l.Accommodates(5))

	bad := "after the 15th"
	negative := -1.0
	blank := " "
	archived := ListingState("ARCHIVED")
	usd := "usd"
	tests := []struct {
		name   string
		params UpdateListingParams
		err    error
	}{
		{"unparseable threshold", UpdateListingParams{IncreaseFromDay: &bad, Currency: &usd}, ErrInvalidSurcharge},
		{"negative rate", UpdateListingParams{PricePerNight: &negative}, ErrNightlyRate},
		{"blank title", UpdateListingParams{Title: &blank}, ErrTitleRequired},
		{"unknown state", UpdateListingParams{State: &archived}, ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := *l
			assert.ErrorIs(t, l.Update(tt.params), tt.err)
			assert.Equal(t, before, *l, "a rejected edit changes nothing")
		})
	}

	none := ""
	require.NoError(t, l.Update(UpdateListingParams{IncreaseFromDay: &none, Now: edited}))
	assert.False(t, l.Surcharge().Active())
}

func TestSearchParams(t *testing.T) {
	rate := 100.0
	cabin, err := NewListing(CreateListingParams{
		ID: "a", Host: "h1", Title: "Lake cabin", City: "Guatape", Capacity: 4, PricePerNight: &rate, Currency: "COP",
	})
	require.NoError(t, err)
	draft, err := NewListing(CreateListingParams{ID: "b", Host: "h2", Title: "Loft", City: "Medellin", Currency: "COP", State: ListingDraft})
	require.NoError(t, err)

	cheap, zero := 50.0, 0.0
	tests := []struct {
		name   string
		params SearchParams
		cabin  bool
		draft  bool
	}{
		{"no filters", SearchParams{}, true, true},
		{"only active", SearchParams{OnlyActive: true}, true, false},
		{"city ignores case", SearchParams{City: " guatape "}, true, false},
		{"text in title", SearchParams{Text: "LOFT"}, false, true},
		{"text in city", SearchParams{Text: "medell"}, false, true},
		{"guests over capacity", SearchParams{MinGuests: 5}, false, true},
		{"max price below rate", SearchParams{MaxPrice: &cheap}, false, false},
		{"zero max price is ignored", SearchParams{MaxPrice: &zero}, true, true},
		{"host", SearchParams{Host: "h2"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.params.Normalized()
			assert.Equal(t, tt.cabin, p.Matches(cabin))
			assert.Equal(t, tt.draft, p.Matches(draft))
		})
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Page(items, SearchParams{Offset: 2, Limit: 2}.Normalized()))
	assert.Equal(t, []int{5}, Page(items, SearchParams{Offset: 4, Limit: 2}.Normalized()))
	assert.Empty(t, Page(items, SearchParams{Offset: 9}.Normalized()))
	assert.Equal(t, defaultSearchLimit, SearchParams{}.Normalized().Limit)
	assert.Equal(t, maxSearchLimit, SearchParams{Limit: 1000}.Normalized().Limit)
}
