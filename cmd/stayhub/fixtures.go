package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	domainlistings "stayhub/internal/domain/listings"
	domainpricing "stayhub/internal/domain/pricing"
)

type listingFixture struct {
	ID              string                        `json:"id"`
	Host            string                        `json:"host"`
	Title           string                        `json:"title"`
	Description     string                        `json:"description"`
	City            string                        `json:"city"`
	Capacity        int                           `json:"capacity"`
	PricePerNight   *float64                      `json:"price_per_night"`
	IncreaseFromDay domainpricing.SurchargeConfig `json:"increase_from_day"`
	Currency        string                        `json:"currency"`
	State           string                        `json:"state"`
}

// loadListingFixtures seeds repo from a JSON array of listings. A missing
// file is not an error; invalid entries are logged and skipped, and listings
// already stored are left as they are.
func loadListingFixtures(ctx context.Context, repo domainlistings.Repository, path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	imported := 0
	for _, fx := range fixtures {
		if _, err := repo.ByID(ctx, domainlistings.ListingID(fx.ID)); err == nil {
			continue
		}
		listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
			ID:              domainlistings.ListingID(fx.ID),
			Host:            domainlistings.HostID(fx.Host),
			Title:           fx.Title,
			Description:     fx.Description,
			City:            fx.City,
			Capacity:        fx.Capacity,
			PricePerNight:   fx.PricePerNight,
			IncreaseFromDay: fx.IncreaseFromDay.String(),
			Currency:        fx.Currency,
			State:           domainlistings.ListingState(fx.State),
			Now:             now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := repo.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		imported++
	}
	logger.Info("listing fixtures imported", "count", imported, "path", path)
	return nil
}
