package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aroma-shop/internal/auth"
	"aroma-shop/internal/config"
	"aroma-shop/internal/database"
	"aroma-shop/internal/handler"
	"aroma-shop/internal/media"
	"aroma-shop/internal/metrics"
	"aroma-shop/internal/payment"
	"aroma-shop/internal/repository"
	"aroma-shop/internal/router"
	"aroma-shop/internal/service"
)

// localMediaURL is where the router serves images written to the local store.
const localMediaURL = "/media/files"

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
	logger.Info().Msg("starting aroma-shop API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if _, err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)

	// Initialize image storage with S3 and local fallback
	localStore := media.NewLocalStore(cfg.Media.LocalDir, localMediaURL, logger)
	var s3Store media.Store
	s3Enabled := cfg.Media.S3Enabled

	if s3Enabled {
		s3Store, err = media.NewS3Store(ctx, cfg.Media.Bucket, cfg.Media.Region, cfg.Media.Prefix, cfg.Media.PublicBaseURL, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 store, falling back to local file system only")
			s3Enabled = false
		}
	} else {
		logger.Info().Msg("using local file system for images (S3 disabled)")
	}
	imageStore := media.NewFallbackStore(s3Store, localStore, s3Enabled, logger)

	m := metrics.New()
	provider := payment.NewStripeProvider(cfg.Payment, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	addressService := service.NewAddressService(addressRepo, logger)
	orderService := service.NewOrderService(orderRepo, paymentRepo, logger)
	checkoutService := service.NewCheckoutService(
		orderRepo, paymentRepo, addressRepo, productRepo, provider, cfg.Payment.Currency, m, logger,
	)
	webhookService := service.NewWebhookService(orderRepo, paymentRepo, provider, m, logger)
	mediaService := service.NewMediaService(imageStore, cfg.Media.MaxUploadBytes(), m, logger)

	// Initialize authentication
	tokens := auth.NewTokenManager(cfg.Auth)
	authenticator := auth.NewAuthenticator(tokens, userRepo, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Product: handler.NewProductHandler(productService, logger),
		Address: handler.NewAddressHandler(addressService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
		Payment: handler.NewPaymentHandler(checkoutService, webhookService, logger),
		Media:   handler.NewMediaHandler(mediaService, cfg.Media.MaxUploadBytes(), logger),
	}

	opts := router.Options{MediaDir: cfg.Media.LocalDir}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
	}

	// Initialize router
	mux := router.New(handlers, authenticator, m, opts, logger)

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
			Str("payment_provider", provider.Name()).
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

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
