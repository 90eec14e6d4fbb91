package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qahwa/internal/cart"
	"qahwa/internal/checkout"
	"qahwa/internal/config"
	"qahwa/internal/database"
	"qahwa/internal/guest"
	"qahwa/internal/handler"
	"qahwa/internal/media"
	"qahwa/internal/repository"
	"qahwa/internal/router"
	"qahwa/internal/service"
	"qahwa/internal/session"
	"qahwa/internal/telemetry"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting qahwa API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize telemetry
	metrics := telemetry.NewNopMetrics()
	if cfg.Telemetry.Enabled {
		m, meterProvider, err := telemetry.InitMetrics(ctx, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		metrics = m
		defer shutdownProvider(meterProvider.Shutdown, "meter", logger)

		tracerProvider, err := telemetry.InitTracing(ctx, cfg.Telemetry, os.Stdout)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer shutdownProvider(tracerProvider.Shutdown, "tracer", logger)

		logger.Info().
			Str("metrics_endpoint", cfg.Telemetry.MetricsEndpoint).
			Str("traces_endpoint", cfg.Telemetry.TracesEndpoint).
			Msg("telemetry enabled")
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize guest cart storage
	var guests guest.Storage
	if cfg.Redis.Enabled {
		client, err := guest.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer client.Close()
		guests = guest.NewRedisStorage(client, cfg.Redis.GuestCartTTL, logger)
	} else {
		// Guest carts do not survive a restart.
		logger.Warn().Msg("redis disabled, keeping guest carts in memory")
		guests = guest.NewMemoryStorage()
	}

	// Initialize image resolver with public URL fallback
	images, err := media.NewResolver(ctx, cfg.S3, cfg.Media, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 media resolver, falling back to public URLs")
		images = media.NewPublicResolver(cfg.Media.PublicBaseURL)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, images, logger)
	orderService := service.NewOrderService(orderRepo, images, logger)
	addressService := service.NewAddressService(addressRepo, logger)
	carts := cart.NewManager(cartRepo, productRepo, guests, metrics, logger)
	assembler := checkout.NewAssembler(orderRepo, cartRepo, addressRepo, metrics, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Products:  handler.NewProductHandler(productService, logger),
		Cart:      handler.NewCartHandler(carts, images, logger),
		Orders:    handler.NewOrderHandler(orderService, carts, assembler, logger),
		Addresses: handler.NewAddressHandler(addressService, logger),
	}

	// Initialize router
	mux := router.New(handlers, session.NewAuthenticator(cfg.Auth), cfg.Telemetry.ServiceName, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// shutdownProvider flushes a telemetry provider on exit.
func shutdownProvider(shutdown func(context.Context) error, name string, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error().Err(err).Str("provider", name).Msg("failed to shutdown telemetry provider")
	}
}
