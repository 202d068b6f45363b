// Package app assembles the command and query buses with their middleware.
package app

import (
	"errors"
	"log/slog"
	"time"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	availabilityapp "stayhub/internal/app/handlers/availability"
	bookingapp "stayhub/internal/app/handlers/booking"
	listingapp "stayhub/internal/app/handlers/listings"
	paymentapp "stayhub/internal/app/handlers/payment"
	pricingapp "stayhub/internal/app/handlers/pricing"
	statsapp "stayhub/internal/app/handlers/stats"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/queries"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
)

// conflictAttempts bounds how often a command is re-run after losing an
// optimistic concurrency race.
const conflictAttempts = 3

type Deps struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Idempotency middleware.IdempotencyStore
	// Listings overrides the unit's listing repository, e.g. with the
	// remote catalog. Nil reads listings through the unit.
	Listings        domainlistings.Reader
	DefaultCurrency string
	Logger          *slog.Logger
	Now             func() time.Time
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Build registers every use case and wraps the buses. Commands run through
// logging, authorization, validation, idempotency, outbox flush and a
// transaction, outermost first.
func Build(d Deps) Buses {
	encoder := outbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookingapp.RequestBookingCommand, dto.Booking](commandBus, &bookingapp.RequestBookingHandler{
		UoWFactory: d.UoWFactory, Listings: d.Listings, Outbox: d.Outbox, Encoder: encoder, Now: d.Now,
	})
	commands.RegisterHandler[bookingapp.ConfirmBookingCommand, dto.Booking](commandBus, &bookingapp.ConfirmBookingHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Now: d.Now,
	})
	commands.RegisterHandler[bookingapp.CancelBookingCommand, dto.Booking](commandBus, &bookingapp.CancelBookingHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Now: d.Now,
	})
	commands.RegisterHandler[listingapp.CreateListingCommand, dto.Listing](commandBus, &listingapp.CreateListingHandler{
		UoWFactory: d.UoWFactory, Source: d.Listings, DefaultCurrency: d.DefaultCurrency, Logger: d.Logger, Now: d.Now,
	})
	commands.RegisterHandler[listingapp.UpdateListingCommand, dto.Listing](commandBus, &listingapp.UpdateListingHandler{
		UoWFactory: d.UoWFactory, Source: d.Listings, Logger: d.Logger, Now: d.Now,
	})
	commands.RegisterHandler[paymentapp.PreparePaymentCommand, dto.PaymentIntent](commandBus, &paymentapp.PreparePaymentHandler{
		UoWFactory: d.UoWFactory, Listings: d.Listings, Outbox: d.Outbox, Encoder: encoder, Now: d.Now,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[listingapp.SearchCatalogQuery, dto.ListingCatalog](queryBus, &listingapp.SearchCatalogHandler{UoWFactory: d.UoWFactory, Source: d.Listings})
	queries.RegisterHandler[listingapp.GetListingQuery, dto.Listing](queryBus, &listingapp.GetListingHandler{UoWFactory: d.UoWFactory, Listings: d.Listings})
	queries.RegisterHandler[paymentapp.PaymentOptionsQuery, dto.PaymentOptions](queryBus, &paymentapp.PaymentOptionsHandler{})
	queries.RegisterHandler[pricingapp.QuoteStayQuery, dto.Quote](queryBus, &pricingapp.QuoteStayHandler{UoWFactory: d.UoWFactory, Listings: d.Listings})
	queries.RegisterHandler[pricingapp.QuoteAdhocQuery, dto.Quote](queryBus, &pricingapp.QuoteAdhocHandler{DefaultCurrency: d.DefaultCurrency})
	queries.RegisterHandler[availabilityapp.GetCalendarQuery, dto.Calendar](queryBus, &availabilityapp.GetCalendarHandler{UoWFactory: d.UoWFactory, Listings: d.Listings})
	queries.RegisterHandler[availabilityapp.CheckRangeQuery, dto.Availability](queryBus, &availabilityapp.CheckRangeHandler{UoWFactory: d.UoWFactory, Listings: d.Listings})
	queries.RegisterHandler[bookingapp.GetBookingQuery, dto.Booking](queryBus, &bookingapp.GetBookingHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[bookingapp.ListListingBookingsQuery, dto.BookingCollection](queryBus, &bookingapp.ListListingBookingsHandler{UoWFactory: d.UoWFactory, Listings: d.Listings})
	queries.RegisterHandler[bookingapp.ListMyBookingsQuery, dto.BookingCollection](queryBus, &bookingapp.ListMyBookingsHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[statsapp.LodgingStatsQuery, dto.LodgingStats](queryBus, &statsapp.LodgingStatsHandler{UoWFactory: d.UoWFactory, Listings: d.Listings, Now: d.Now})

	validator := middleware.NewStructValidator()
	authorizer := middleware.RoleAuthorizer{}

	commandMWs := []middleware.CommandMiddleware{
		middleware.Logging(d.Logger),
		middleware.Authorization(authorizer),
		middleware.Validation(validator),
	}
	if d.Idempotency != nil {
		commandMWs = append(commandMWs, middleware.Idempotency(d.Idempotency, nil))
	}
	if d.Outbox != nil {
		commandMWs = append(commandMWs, middleware.OutboxFlush(d.Outbox))
	}
	commandMWs = append(commandMWs, middleware.Transaction(d.UoWFactory, &middleware.TxPolicy{
		Retryable: func(err error) bool {
			return errors.Is(err, domainbooking.ErrConcurrentUpdate) || errors.Is(err, domainlistings.ErrConcurrentUpdate)
		},
		MaxAttempts: conflictAttempts,
	}))

	return Buses{
		Commands: middleware.ChainCommands(commandBus, commandMWs...),
		Queries: middleware.ChainQueries(queryBus,
			middleware.QueryAuthorization(authorizer),
			middleware.QueryValidation(validator),
		),
	}
}
