package support

import (
	"context"
	"strings"
	"time"

	"stayhub/internal/app/identity"
	"stayhub/internal/app/uow"
	domainlistings "stayhub/internal/domain/listings"
)

// LoadListing reads through source when one is configured (the remote
// catalog) and falls back to the unit's repository.
func LoadListing(ctx context.Context, source domainlistings.Reader, unit uow.UnitOfWork, id string) (*domainlistings.Listing, error) {
	listingID := domainlistings.ListingID(strings.TrimSpace(id))
	if listingID == "" {
		return nil, domainlistings.ErrNotFound
	}
	if source != nil {
		return source.ByID(ctx, listingID)
	}
	return unit.Listings().ByID(ctx, listingID)
}

// EnsureHostAccess allows the listing owner and admins.
func EnsureHostAccess(ctx context.Context, listing *domainlistings.Listing) error {
	p, err := identity.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	if p.ActiveRole == identity.RoleAdmin || listing.OwnedBy(domainlistings.HostID(p.UserID)) {
		return nil
	}
	return domainlistings.ErrNotOwner
}

// Now returns clock() in UTC, defaulting to the wall clock.
func Now(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}
