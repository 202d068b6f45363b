package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/dto"
	pricingapp "stayhub/internal/app/handlers/pricing"
	"stayhub/internal/app/queries"
	domainpricing "stayhub/internal/domain/pricing"
)

type PricingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// quoteRequest carries explicit pricing inputs. increase_from_day may be a
// number or a numeric string.
type quoteRequest struct {
	CheckIn         string                        `json:"check_in" binding:"omitempty,stay_date"`
	CheckOut        string                        `json:"check_out" binding:"omitempty,stay_date"`
	PricePerNight   *float64                      `json:"price_per_night" binding:"omitempty,gte=0"`
	IncreaseFromDay domainpricing.SurchargeConfig `json:"increase_from_day"`
	Currency        string                        `json:"currency" binding:"omitempty,len=3"`
}

func (h PricingHandler) QuoteAdhoc(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}
	query := pricingapp.QuoteAdhocQuery{
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		PricePerNight:   req.PricePerNight,
		IncreaseFromDay: req.IncreaseFromDay,
		Currency:        req.Currency,
	}
	result, err := queries.Ask[pricingapp.QuoteAdhocQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type stayParams struct {
	CheckIn  string `form:"check_in" binding:"omitempty,stay_date"`
	CheckOut string `form:"check_out" binding:"omitempty,stay_date"`
}

// QuoteStay prices a stay at the listing's rate. Leaving out either date
// quotes zero, matching a half-finished date selection.
func (h PricingHandler) QuoteStay(c *gin.Context) {
	var params stayParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := parseStayDates(params.CheckIn, params.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}
	query := pricingapp.QuoteStayQuery{ListingID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[pricingapp.QuoteStayQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PricingHTTP = PricingHandler{}
