package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
)

// Server error labels marking a transaction that may succeed when retried.
const (
	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database or repositories")

// Factory opens one session-scoped transaction per unit. Repositories pick
// the session up from the context the unit injects.
type Factory struct {
	DB           *mongo.Database
	ListingsRepo domainlistings.Repository
	BookingRepo  domainbooking.Repository
}

// Begin starts a transaction with majority write concern. Read-only units
// read from a snapshot so a calendar never mixes two commits.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.ListingsRepo == nil || f.BookingRepo == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("mongo: start session: %w", err)
	}
	txn := options.Transaction().SetWriteConcern(writeconcern.Majority())
	if opts.ReadOnly {
		txn.SetReadConcern(readconcern.Snapshot())
	} else {
		txn.SetReadConcern(readconcern.Majority())
	}
	if err := session.StartTransaction(txn); err != nil {
		session.EndSession(ctx)
		return nil, fmt.Errorf("mongo: start transaction: %w", err)
	}
	return &Unit{session: session, listings: f.ListingsRepo, bookings: f.BookingRepo}, nil
}

type Unit struct {
	session  mongo.Session
	listings domainlistings.Repository
	bookings domainbooking.Repository
	done     bool
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

// Commit reports transient transaction failures, such as a write conflict
// with a concurrent booking, as domainbooking.ErrConcurrentUpdate.
func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return classifyTxnError(err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

func classifyTxnError(err error) error {
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) &&
		(labeled.HasErrorLabel(labelTransientTransaction) || labeled.HasErrorLabel(labelUnknownCommitResult)) {
		return fmt.Errorf("%w: %v", domainbooking.ErrConcurrentUpdate, err)
	}
	return err
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
