package uow

import (
	"context"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/listings"
)

// UnitOfWork scopes repository access to one transaction.
type UnitOfWork interface {
	Listings() listings.Repository
	Bookings() booking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units whose repositories need a derived
// context, such as a database session.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}
