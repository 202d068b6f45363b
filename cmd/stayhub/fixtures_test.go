package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/infra/storage/memory"
)

func TestLoadListingFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "a", "host": "h", "title": "Cabin", "capacity": 3, "price_per_night": 100, "increase_from_day": "15", "currency": "cop"},
		{"id": "b", "host": "h", "title": "Loft", "currency": "COP", "state": "SUSPENDED"},
		{"id": "", "title": "nameless", "currency": "COP"}
	]`), 0o600))

	repo := memory.NewListingRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, loadListingFixtures(context.Background(), repo, path, logger))

	items, err := repo.Search(context.Background(), domainlistings.SearchParams{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	cabin := items[0]
	assert.Equal(t, domainlistings.ListingID("a"), cabin.ID)
	assert.Equal(t, "COP", cabin.Currency)
	assert.Equal(t, "15", cabin.IncreaseFromDay)
	assert.Equal(t, 3, cabin.Capacity)
	require.NoError(t, cabin.Bookable())

	loft := items[1]
	assert.Nil(t, loft.PricePerNight)
	assert.ErrorIs(t, loft.Bookable(), domainlistings.ErrNotBookable)

	// A restart seeds the same file again without clobbering edits.
	title := "Cabin by the lake"
	require.NoError(t, cabin.Update(domainlistings.UpdateListingParams{Title: &title}))
	require.NoError(t, repo.Save(context.Background(), cabin))
	require.NoError(t, loadListingFixtures(context.Background(), repo, path, logger))
	again, err := repo.ByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, title, again.Title)
}

func TestLoadListingFixturesMissingFile(t *testing.T) {
	repo := memory.NewListingRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := loadListingFixtures(context.Background(), repo, filepath.Join(t.TempDir(), "absent.json"), logger)
	assert.NoError(t, err)
}
