package ginserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	listingapp "stayhub/internal/app/handlers/listings"
	"stayhub/internal/app/queries"
)

var errInvalidThreshold = errors.New("increase_from_day must be a number, a numeric string or null")

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type catalogParams struct {
	City     string   `form:"city"`
	Text     string   `form:"q"`
	Guests   int      `form:"guests" binding:"min=0"`
	MaxPrice *float64 `form:"max_price" binding:"omitempty,gt=0"`
	CheckIn  string   `form:"check_in" binding:"required_with=CheckOut,stay_date"`
	CheckOut string   `form:"check_out" binding:"required_with=CheckIn,stay_date"`
	Limit    int      `form:"limit" binding:"min=0"`
	Offset   int      `form:"offset" binding:"min=0"`
}

func (h ListingHandler) Search(c *gin.Context) {
	var params catalogParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := parseStayDates(params.CheckIn, params.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}
	query := listingapp.SearchCatalogQuery{
		City:     params.City,
		Text:     params.Text,
		Guests:   params.Guests,
		MaxPrice: params.MaxPrice,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Limit:    params.Limit,
		Offset:   params.Offset,
	}
	result, err := queries.Ask[listingapp.SearchCatalogQuery, dto.ListingCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	query := listingapp.GetListingQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[listingapp.GetListingQuery, dto.Listing](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createListingRequest struct {
	Title           string          `json:"title" binding:"required,max=200"`
	Description     string          `json:"description" binding:"max=4000"`
	City            string          `json:"city" binding:"max=120"`
	Capacity        int             `json:"capacity" binding:"min=0"`
	PricePerNight   *float64        `json:"price_per_night"`
	IncreaseFromDay json.RawMessage `json:"increase_from_day"`
	Currency        string          `json:"currency"`
	State           string          `json:"state"`
}

func (h ListingHandler) Create(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	threshold, err := thresholdText(req.IncreaseFromDay)
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.CreateListingCommand{
		Title:           req.Title,
		Description:     req.Description,
		City:            req.City,
		Capacity:        req.Capacity,
		PricePerNight:   req.PricePerNight,
		Currency:        req.Currency,
		State:           req.State,
		IdempotencyKeyV: c.GetHeader(headerIdempotencyKey),
	}
	if threshold != nil {
		cmd.IncreaseFromDay = *threshold
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// updateListingRequest is a merge patch: absent fields stay, and a null
// increase_from_day removes the surcharge.
type updateListingRequest struct {
	Title           *string         `json:"title" binding:"omitempty,max=200"`
	Description     *string         `json:"description" binding:"omitempty,max=4000"`
	City            *string         `json:"city" binding:"omitempty,max=120"`
	Capacity        *int            `json:"capacity" binding:"omitempty,min=0"`
	PricePerNight   *float64        `json:"price_per_night"`
	IncreaseFromDay json.RawMessage `json:"increase_from_day"`
	Currency        *string         `json:"currency"`
	State           *string         `json:"state"`
}

func (h ListingHandler) Update(c *gin.Context) {
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	threshold, err := thresholdText(req.IncreaseFromDay)
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.UpdateListingCommand{
		ListingID:       c.Param("id"),
		Title:           req.Title,
		Description:     req.Description,
		City:            req.City,
		Capacity:        req.Capacity,
		PricePerNight:   req.PricePerNight,
		IncreaseFromDay: threshold,
		Currency:        req.Currency,
		State:           req.State,
	}
	result, err := commands.Dispatch[listingapp.UpdateListingCommand, dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// thresholdText reads increase_from_day as sent. Absent is nil and null is
// the empty string.
func thresholdText(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errInvalidThreshold
	}
	var out string
	switch t := v.(type) {
	case nil:
	case string:
		out = t
	case float64:
		out = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil, errInvalidThreshold
	}
	return &out, nil
}

var _ ListingHTTP = ListingHandler{}
