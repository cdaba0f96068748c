package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onefine/internal/auth"
	"onefine/internal/config"
	"onefine/internal/database"
	"onefine/internal/handler"
	"onefine/internal/metrics"
	"onefine/internal/middleware"
	"onefine/internal/repository"
	"onefine/internal/router"
	"onefine/internal/service"
	"onefine/internal/upload"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; real environment variables still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting onefine catalogue API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.Migrate {
		if err := database.RunMigrations(cfg.Database.ConnectionString(), logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// Initialize repositories and services
	productRepo := repository.NewProductRepository(pool, logger)
	productService := service.NewProductService(productRepo, collector, logger)

	if _, err := productService.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed default products: %w", err)
	}

	authService := service.NewAuthService(
		auth.NewVerifier(cfg.Auth.AdminPassword, cfg.Auth.AdminPasswordHash),
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		collector,
		logger,
	)

	imageService := service.NewImageService(newImageStore(ctx, cfg, logger), collector, logger)

	loginLimiter := middleware.NewRateLimiter(
		middleware.LoginRateLimiterConfig(cfg.Auth.LoginRatePerMinute),
		logger,
	)
	defer loginLimiter.Stop()

	// Initialize router
	mux := router.New(router.Deps{
		Products:       handler.NewProductHandler(productService, logger),
		Auth:           handler.NewAuthHandler(authService, logger),
		Uploads:        handler.NewUploadHandler(imageService, cfg.Upload.MaxBytes, logger),
		Verifier:       authService,
		LoginLimiter:   loginLimiter,
		Recorder:       collector,
		MetricsHandler: metrics.Handler(registry),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

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

// newImageStore returns the disk store, fronted by S3 when enabled.
// An S3 client that cannot be built degrades to disk only.
func newImageStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) upload.Store {
	diskStore := upload.NewDiskStore(cfg.Upload.Dir, logger)

	if !cfg.S3.Enabled {
		logger.Info().
			Str("dir", cfg.Upload.Dir).
			Msg("using local file system for uploads (S3 disabled)")
		return diskStore
	}

	s3Store, err := upload.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 store, falling back to local file system only")
		return diskStore
	}

	return upload.NewFallbackStore(s3Store, diskStore, logger)
}
