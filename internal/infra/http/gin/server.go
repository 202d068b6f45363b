package ginserver

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"stayhub/internal/infra/config"
	"stayhub/internal/infra/obs"
)

type ListingHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
}

type PaymentHTTP interface {
	Options(c *gin.Context)
}

type PricingHTTP interface {
	QuoteAdhoc(c *gin.Context)
	QuoteStay(c *gin.Context)
}

type AvailabilityHTTP interface {
	CheckRange(c *gin.Context)
	Calendar(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Cancel(c *gin.Context)
	PreparePayment(c *gin.Context)
	ListByListing(c *gin.Context)
}

type StatsHTTP interface {
	Lodging(c *gin.Context)
}

type MeHTTP interface {
	ListBookings(c *gin.Context)
}

type Handlers struct {
	Listing      ListingHTTP
	Payment      PaymentHTTP
	Pricing      PricingHTTP
	Availability AvailabilityHTTP
	Booking      BookingHTTP
	Stats        StatsHTTP
	Me           MeHTTP
	Identity     gin.HandlerFunc
}

const readHeaderTimeout = 10 * time.Second

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode, "cors_origins", cfg.CORSOrigins)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h, cfg.CORSOrigins...),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// NewRouter builds the route table. Handler groups left nil are not mounted.
// Without origins every origin is allowed.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers, origins ...string) *gin.Engine {
	registerBindings()

	router := gin.New()
	router.Use(gin.Recovery(), obsMW.RequestID(), obsMW.AccessLog(), corsPolicy(origins))
	if h.Identity != nil {
		router.Use(h.Identity)
	}
	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	listing := api.Group("/listings/:id")
	booking := api.Group("/bookings")
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Search)
		api.POST("/listings", h.Listing.Create)
		listing.GET("", h.Listing.Get)
		listing.PATCH("", h.Listing.Update)
	}
	if h.Pricing != nil {
		api.POST("/quotes", h.Pricing.QuoteAdhoc)
		listing.GET("/quote", h.Pricing.QuoteStay)
	}
	if h.Availability != nil {
		listing.GET("/availability", h.Availability.CheckRange)
		listing.GET("/calendar", h.Availability.Calendar)
	}
	if h.Booking != nil {
		listing.GET("/bookings", h.Booking.ListByListing)
		booking.POST("", h.Booking.Create)
		booking.GET("/:id", h.Booking.Get)
		booking.POST("/:id/cancel", h.Booking.Cancel)
		booking.POST("/:id/payments", h.Booking.PreparePayment)
	}
	if h.Stats != nil {
		listing.GET("/stats", h.Stats.Lodging)
	}
	if h.Me != nil {
		api.GET("/me/bookings", h.Me.ListBookings)
	}
	if h.Payment != nil {
		api.GET("/payments/options", h.Payment.Options)
	}
	return router
}

// corsPolicy lets browsers send the identity and idempotency headers the
// gateway forwards.
func corsPolicy(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", headerIdempotencyKey,
			headerUserID, headerUserRoles, headerUserData, headerActiveRole,
		},
		ExposeHeaders: []string{"Content-Length", obs.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func configureGinMode(env string) string {
	mode := gin.ReleaseMode
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		mode = gin.DebugMode
	case "test", "testing":
		mode = gin.TestMode
	}
	gin.SetMode(mode)
	return mode
}
