package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	adminPassword = "integration-secret"
	jwtSecret     = "integration-jwt-secret"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts a PostgreSQL container, applies the embedded migrations
// and opens a pool through database.NewPool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.RunMigrations(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, config.DatabaseConfig{
		URL:             connStr,
		MaxConnections:  10,
		MinConnections:  1,
		MaxConnLifetime: 300,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes every product.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE products"); err != nil {
		t.Fatalf("failed to clean products: %v", err)
	}
}

// TestApp is the full API wired against a test database.
type TestApp struct {
	Server         *httptest.Server
	ProductService service.ProductService
	UploadDir      string
}

// SetupTestApp wires repositories, services and the router the same way the
// API binary does, with disk uploads under a temp dir.
func SetupTestApp(t *testing.T, testDB *TestDB) *TestApp {
	t.Helper()

	logger := zerolog.Nop()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	productService := service.NewProductService(
		repository.NewProductRepository(testDB.Pool, logger), collector, logger)
	authService := service.NewAuthService(
		auth.NewStaticPassword(adminPassword),
		auth.NewTokenManager(jwtSecret, auth.DefaultTokenTTL),
		collector,
		logger,
	)
	uploadDir := t.TempDir()
	imageService := service.NewImageService(upload.NewDiskStore(uploadDir, logger), collector, logger)

	limiter := middleware.NewRateLimiter(middleware.LoginRateLimiterConfig(100), logger)
	t.Cleanup(limiter.Stop)

	var h http.Handler = router.New(router.Deps{
		Products:       handler.NewProductHandler(productService, logger),
		Auth:           handler.NewAuthHandler(authService, logger),
		Uploads:        handler.NewUploadHandler(imageService, 1<<20, logger),
		Verifier:       authService,
		LoginLimiter:   limiter,
		Recorder:       collector,
		MetricsHandler: metrics.Handler(registry),
		AllowedOrigins: []string{"*"},
		Logger:         logger,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &TestApp{Server: srv, ProductService: productService, UploadDir: uploadDir}
}
