package repository

import (
	"context"

	"onefine/internal/model"
)

// ProductRepository defines the interface for product data access operations.
// Every write is a single statement, so callers never need a transaction.
type ProductRepository interface {
	// List retrieves all products, most recently created first.
	List(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Create inserts a product and returns it with its generated ID and timestamps.
	Create(ctx context.Context, product *model.Product) (*model.Product, error)

	// Update applies the non-nil patch fields and bumps updated_at.
	// Returns nil, nil when the product does not exist.
	Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)

	// Delete removes a product. Returns false when it did not exist.
	Delete(ctx context.Context, id string) (bool, error)

	// Count returns the number of stored products.
	Count(ctx context.Context) (int, error)

	// SeedIfEmpty inserts the given products only when the store holds none.
	// It returns the number of rows inserted.
	SeedIfEmpty(ctx context.Context, products []model.Product) (int, error)
}
