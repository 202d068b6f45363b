package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/dto"
	bookingapp "stayhub/internal/app/handlers/booking"
	statsapp "stayhub/internal/app/handlers/stats"
	"stayhub/internal/app/queries"
)

type MeHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	query := bookingapp.ListMyBookingsQuery{GuestID: callerID(c), Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListMyBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type StatsHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h StatsHandler) Lodging(c *gin.Context) {
	query := statsapp.LodgingStatsQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[statsapp.LodgingStatsQuery, dto.LodgingStats](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ MeHTTP    = MeHandler{}
	_ StatsHTTP = StatsHandler{}
)
