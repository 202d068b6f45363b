package booking

import (
	"context"

	"stayhub/internal/app/identity"
	domainbooking "stayhub/internal/domain/booking"
)

// ensureParticipant admits the booking's guest, the listing's host and admins.
func ensureParticipant(ctx context.Context, b *domainbooking.Booking) error {
	p, err := identity.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	switch {
	case p.ActiveRole == identity.RoleAdmin:
		return nil
	case b.GuestID == p.UserID:
		return nil
	case string(b.HostID) == p.UserID:
		return nil
	default:
		return domainbooking.ErrNotFound
	}
}
