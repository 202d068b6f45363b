package listings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	handlersupport "stayhub/internal/app/handlers/support"
	"stayhub/internal/app/identity"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/uow"
	domainlistings "stayhub/internal/domain/listings"
)

const (
	createListingKey = "host.listings.create"
	updateListingKey = "host.listings.update"
)

// CreateListingCommand publishes a listing owned by the calling host. Blank
// currency falls back to the service default; blank state means ACTIVE.
type CreateListingCommand struct {
	Title           string `validate:"required"`
	Description     string
	City            string
	Capacity        int `validate:"gte=0"`
	PricePerNight   *float64
	IncreaseFromDay string
	Currency        string
	State           string
	IdempotencyKeyV string
}

func (c CreateListingCommand) Key() string { return createListingKey }

func (c CreateListingCommand) RequiredRole() string { return identity.RoleHost }

func (c CreateListingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateListingCommand) ResultPrototype() any { return &dto.Listing{} }

func (c CreateListingCommand) Fingerprint() string {
	rate := "-"
	if c.PricePerNight != nil {
		rate = fmt.Sprint(*c.PricePerNight)
	}
	return strings.Join([]string{c.Title, c.City, fmt.Sprint(c.Capacity), rate, c.IncreaseFromDay, strings.ToUpper(c.Currency), c.State}, "|")
}

type CreateListingHandler struct {
	UoWFactory      uow.UoWFactory
	Source          domainlistings.Reader
	DefaultCurrency string
	Logger          *slog.Logger
	Now             func() time.Time
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (dto.Listing, error) {
	if h.Source != nil {
		return dto.Listing{}, ErrRemoteCatalog
	}
	caller, err := identity.PrincipalFrom(ctx)
	if err != nil {
		return dto.Listing{}, err
	}
	currency := cmd.Currency
	if strings.TrimSpace(currency) == "" {
		currency = h.DefaultCurrency
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:              domainlistings.ListingID(uuid.NewString()),
		Host:            domainlistings.HostID(caller.UserID),
		Title:           cmd.Title,
		Description:     cmd.Description,
		City:            cmd.City,
		Capacity:        cmd.Capacity,
		PricePerNight:   cmd.PricePerNight,
		IncreaseFromDay: cmd.IncreaseFromDay,
		Currency:        currency,
		State:           domainlistings.ListingState(strings.ToUpper(strings.TrimSpace(cmd.State))),
		Now:             handlersupport.Now(h.Now),
	})
	if err != nil {
		return dto.Listing{}, err
	}

	err = handlersupport.WithWriteUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		return unit.Listings().Save(ctx, listing)
	})
	if err != nil {
		return dto.Listing{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("host listing created", "listing_id", listing.ID, "host_id", caller.UserID)
	}
	return dto.MapListing(listing), nil
}

// UpdateListingCommand edits a listing; nil fields are left as they are. An
// empty IncreaseFromDay removes the surcharge.
type UpdateListingCommand struct {
	ListingID       string `validate:"required"`
	Title           *string
	Description     *string
	City            *string
	Capacity        *int
	PricePerNight   *float64
	IncreaseFromDay *string
	Currency        *string
	State           *string
}

func (c UpdateListingCommand) Key() string { return updateListingKey }

func (c UpdateListingCommand) RequiredRole() string { return identity.RoleHost }

type UpdateListingHandler struct {
	UoWFactory uow.UoWFactory
	Source     domainlistings.Reader
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (dto.Listing, error) {
	if h.Source != nil {
		return dto.Listing{}, ErrRemoteCatalog
	}
	var result dto.Listing
	err := handlersupport.WithWriteUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := handlersupport.LoadListing(ctx, nil, unit, cmd.ListingID)
		if err != nil {
			return err
		}
		if err := handlersupport.EnsureHostAccess(ctx, listing); err != nil {
			return err
		}
		params := domainlistings.UpdateListingParams{
			Title:           cmd.Title,
			Description:     cmd.Description,
			City:            cmd.City,
			Capacity:        cmd.Capacity,
			PricePerNight:   cmd.PricePerNight,
			IncreaseFromDay: cmd.IncreaseFromDay,
			Currency:        cmd.Currency,
			Now:             handlersupport.Now(h.Now),
		}
		if cmd.State != nil {
			state := domainlistings.ListingState(strings.ToUpper(strings.TrimSpace(*cmd.State)))
			params.State = &state
		}
		if err := listing.Update(params); err != nil {
			return err
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return err
		}
		result = dto.MapListing(listing)
		return nil
	})
	if err != nil {
		return dto.Listing{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("host listing updated", "listing_id", result.ID, "version", result.Version)
	}
	return result, nil
}

var (
	_ commands.Handler[CreateListingCommand, dto.Listing] = (*CreateListingHandler)(nil)
	_ commands.Handler[UpdateListingCommand, dto.Listing] = (*UpdateListingHandler)(nil)
	_ middleware.IdempotentCommand                        = CreateListingCommand{}
	_ middleware.Fingerprinter                            = CreateListingCommand{}
)
