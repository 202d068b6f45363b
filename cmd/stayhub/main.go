package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stayhub/internal/app"
	"stayhub/internal/app/middleware"
	appoutbox "stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/infra/broker/kafka"
	"stayhub/internal/infra/catalog"
	"stayhub/internal/infra/config"
	mongodb "stayhub/internal/infra/db/mongo"
	ginserver "stayhub/internal/infra/http/gin"
	"stayhub/internal/infra/inbox"
	"stayhub/internal/infra/obs"
	infraoutbox "stayhub/internal/infra/outbox"
	"stayhub/internal/infra/storage/memory"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("dev", "info").Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("stayhub stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stayhub stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		st.close(closeCtx)
	}()

	var listings domainlistings.Reader
	switch cfg.ListingsSource {
	case config.ListingsRemote:
		listings = catalog.NewClient(cfg.ListingsURL, cfg.ListingsTimeout, cfg.DefaultCurrency, logger)
		logger.Info("listings read from remote catalog", "url", cfg.ListingsURL)
	default:
		if err := loadListingFixtures(ctx, st.listings, cfg.ListingsFixtures, logger); err != nil {
			logger.Warn("listing fixtures load failed", "error", err, "path", cfg.ListingsFixtures)
		}
	}

	buses := app.Build(app.Deps{
		UoWFactory:      st.factory,
		Outbox:          st.outbox,
		Idempotency:     st.idempotency,
		Listings:        listings,
		DefaultCurrency: cfg.DefaultCurrency,
		Logger:          logger,
	})

	handlers := ginserver.Handlers{
		Listing:      ginserver.ListingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Payment:      ginserver.PaymentHandler{Queries: buses.Queries, Logger: logger},
		Pricing:      ginserver.PricingHandler{Queries: buses.Queries, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Queries: buses.Queries, Logger: logger},
		Booking:      ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Stats:        ginserver.StatsHandler{Queries: buses.Queries, Logger: logger},
		Me:           ginserver.MeHandler{Queries: buses.Queries, Logger: logger},
		Identity:     ginserver.IdentityMiddleware{Logger: logger}.Handle,
	}
	health := obs.HealthHandlers{Checks: st.checks, Timeout: 2 * time.Second}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, health, handlers)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.KafkaEnabled() {
		if err := startMessaging(gctx, g, cfg, st, buses, logger); err != nil {
			return err
		}
	} else {
		logger.Info("kafka disabled, outbox records stay pending")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "listings", cfg.ListingsSource)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// startMessaging runs the outbox relay and the payment result consumer.
func startMessaging(ctx context.Context, g *errgroup.Group, cfg config.Config, st *storage, buses app.Buses, logger *slog.Logger) error {
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	worker := &infraoutbox.Worker{
		Store:       st.relay,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.With("component", "outbox"),
	}
	g.Go(func() error {
		defer producer.Close()
		return ignoreCanceled(worker.Run(ctx))
	})

	payments := &kafka.PaymentResultHandler{
		Commands: buses.Commands,
		Inbox:    st.inbox,
		Logger:   logger.With("component", "payments"),
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, nil, payments, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	g.Go(func() error {
		defer consumer.Close()
		logger.Info("payment consumer starting", "topic", cfg.KafkaPaymentTopic, "group", cfg.KafkaConsumerGroup)
		return ignoreCanceled(consumer.Run(ctx, []string{cfg.KafkaPaymentTopic}))
	})
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type storage struct {
	factory     uow.UoWFactory
	listings    domainlistings.Repository
	outbox      appoutbox.Outbox
	relay       infraoutbox.Store
	idempotency middleware.IdempotencyStore
	inbox       kafka.Inbox
	checks      map[string]obs.Check
	close       func(ctx context.Context)
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.StorageMode != config.StorageMongo {
		listings := memory.NewListingRepository()
		box := memory.NewOutbox()
		logger.Info("using in-memory storage")
		return &storage{
			factory:     memory.NewFactory(listings, memory.NewBookingRepository(), box),
			listings:    listings,
			outbox:      box,
			relay:       box,
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			inbox:       memory.NewInbox(),
			close:       func(context.Context) {},
		}, nil
	}

	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	fail := func(err error) (*storage, error) {
		_ = client.Close(context.Background())
		return nil, err
	}
	bookings, err := mongodb.NewBookingRepository(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo bookings: %w", err))
	}
	box, err := infraoutbox.NewMongoStore(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo outbox: %w", err))
	}
	idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return fail(fmt.Errorf("mongo idempotency: %w", err))
	}
	processed, err := inbox.NewStore(ctx, client.DB, cfg.KafkaConsumerGroup)
	if err != nil {
		return fail(fmt.Errorf("mongo inbox: %w", err))
	}
	listings := mongodb.NewListingRepository(client.DB)
	logger.Info("using mongo storage", "database", cfg.MongoDB)
	return &storage{
		factory:     mongodb.Factory{DB: client.DB, ListingsRepo: listings, BookingRepo: bookings},
		listings:    listings,
		outbox:      box,
		relay:       box,
		idempotency: idem,
		inbox:       processed,
		checks:      map[string]obs.Check{"mongo": client.Ping},
		close: func(ctx context.Context) {
			if err := client.Close(ctx); err != nil {
				logger.Error("mongo disconnect failed", "error", err)
			}
		},
	}, nil
}
