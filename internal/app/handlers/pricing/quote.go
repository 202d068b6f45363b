package pricing

import (
	"context"
	"strings"
	"time"

	"stayhub/internal/app/dto"
	handlersupport "stayhub/internal/app/handlers/support"
	"stayhub/internal/app/queries"
	"stayhub/internal/app/uow"
	domainlistings "stayhub/internal/domain/listings"
	domainpricing "stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/money"
)

const (
	quoteStayKey  = "pricing.quote_stay"
	quoteAdhocKey = "pricing.quote_adhoc"
)

// QuoteStayQuery prices a stay at a listing's published rate. Missing dates
// are an incomplete selection and quote zero.
type QuoteStayQuery struct {
	ListingID string `validate:"required"`
	CheckIn   time.Time
	CheckOut  time.Time
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

type QuoteStayHandler struct {
	UoWFactory uow.UoWFactory
	Listings   domainlistings.Reader
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.Quote, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := handlersupport.LoadListing(execCtx, h.Listings, unit, q.ListingID)
	if err != nil {
		return dto.Quote{}, err
	}
	surcharge := listing.Surcharge()
	result := domainpricing.ComputeStayPricing(q.CheckIn, q.CheckOut, listing.PricePerNight, surcharge)
	return dto.MapQuote(string(listing.ID), q.CheckIn, q.CheckOut, result, listing.Currency, surcharge), nil
}

// QuoteAdhocQuery prices explicit inputs without a listing lookup.
type QuoteAdhocQuery struct {
	CheckIn         time.Time
	CheckOut        time.Time
	PricePerNight   *float64 `validate:"omitnil,gte=0"`
	IncreaseFromDay domainpricing.SurchargeConfig
	Currency        string `validate:"omitempty,len=3"`
}

func (q QuoteAdhocQuery) Key() string { return quoteAdhocKey }

type QuoteAdhocHandler struct {
	DefaultCurrency string
}

func (h *QuoteAdhocHandler) Handle(_ context.Context, q QuoteAdhocQuery) (dto.Quote, error) {
	currency := h.DefaultCurrency
	if strings.TrimSpace(q.Currency) != "" {
		code, err := money.Code(q.Currency)
		if err != nil {
			return dto.Quote{}, err
		}
		currency = code
	}
	result := domainpricing.ComputeStayPricing(q.CheckIn, q.CheckOut, q.PricePerNight, q.IncreaseFromDay)
	return dto.MapQuote("", q.CheckIn, q.CheckOut, result, currency, q.IncreaseFromDay), nil
}

var (
	_ queries.Handler[QuoteStayQuery, dto.Quote]  = (*QuoteStayHandler)(nil)
	_ queries.Handler[QuoteAdhocQuery, dto.Quote] = (*QuoteAdhocHandler)(nil)
)
