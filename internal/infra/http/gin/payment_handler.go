package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/dto"
	paymentapp "stayhub/internal/app/handlers/payment"
	"stayhub/internal/app/queries"
)

type PaymentHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h PaymentHandler) Options(c *gin.Context) {
	result, err := queries.Ask[paymentapp.PaymentOptionsQuery, dto.PaymentOptions](c.Request.Context(), h.Queries, paymentapp.PaymentOptionsQuery{})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentHTTP = PaymentHandler{}
