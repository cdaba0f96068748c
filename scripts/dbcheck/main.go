// Command dbcheck verifies that the configured database is reachable and
// reports its schema version and catalogue size.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"onefine/internal/config"
	"onefine/internal/database"
	"onefine/internal/repository"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	m, err := database.NewMigrator(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Println("Schema version: none (run the API with DB_MIGRATE=true)")
		return nil
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Printf("Schema version: %d (dirty: %t)\n", version, dirty)

	count, err := repository.NewProductRepository(pool, logger).Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	fmt.Printf("Products: %d\n", count)

	return nil
}
