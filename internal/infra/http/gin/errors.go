package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/commands"
	listingapp "stayhub/internal/app/handlers/listings"
	"stayhub/internal/app/identity"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/queries"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainpayment "stayhub/internal/domain/payment"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/infra/catalog"
	"stayhub/internal/infra/obs"
)

// statusFor maps application and domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, middleware.ErrInvalidMessage),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrMissingDate),
		errors.Is(err, domainbooking.ErrCheckInInPast),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrGuestRequired),
		errors.Is(err, domainpayment.ErrUnsupportedCurrency),
		errors.Is(err, domainpayment.ErrUnsupportedMethod),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrNightlyRate),
		errors.Is(err, domainlistings.ErrInvalidCurrency),
		errors.Is(err, domainlistings.ErrInvalidSurcharge),
		errors.Is(err, domainlistings.ErrCapacity),
		errors.Is(err, domainlistings.ErrInvalidState),
		errors.Is(err, identity.ErrMalformedClaims):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrAnonymous):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrForbidden),
		errors.Is(err, identity.ErrRoleNotGranted),
		errors.Is(err, domainlistings.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainlistings.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrRangeUnavailable),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainbooking.ErrConcurrentUpdate),
		errors.Is(err, domainlistings.ErrConcurrentUpdate),
		errors.Is(err, listingapp.ErrRemoteCatalog),
		errors.Is(err, middleware.ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, domainlistings.ErrNotBookable),
		errors.Is(err, domainlistings.ErrRateMissing),
		errors.Is(err, domainlistings.ErrOverCapacity),
		errors.Is(err, domainbooking.ErrZeroTotal),
		errors.Is(err, domainpayment.ErrAmountNotPositive),
		errors.Is(err, domainpayment.ErrCurrencyMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrUnrecognizedShape):
		return http.StatusBadGateway
	case errors.Is(err, uow.ErrUnitOfWorkMissing),
		errors.Is(err, commands.ErrHandlerNotFound),
		errors.Is(err, queries.ErrHandlerNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": ...}. Server-side failures are logged
// and their details withheld.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	log := obs.RequestLogger(c.Request.Context(), logger)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	log.Debug("request rejected", "path", c.FullPath(), "status", status, "error", err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
