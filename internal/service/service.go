package service

import (
	"context"
	"io"

	"onefine/internal/auth"
	"onefine/internal/model"
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	// List returns every product, most recently created first.
	List(ctx context.Context) ([]model.Product, error)

	// Create validates the input and stores a new product.
	Create(ctx context.Context, input model.ProductInput) (*model.Product, error)

	// Update applies a partial update to an existing product.
	Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)

	// Delete removes a product.
	Delete(ctx context.Context, id string) error

	// SeedDefaults inserts the default catalogue when the store is empty.
	SeedDefaults(ctx context.Context) (int, error)
}

// AuthService defines admin login and session verification.
type AuthService interface {
	// Login exchanges the admin password for a session token.
	Login(ctx context.Context, password string) (*model.TokenResponse, error)

	// Verify checks a session token and returns its claims.
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// ImageService defines storage of uploaded product images.
type ImageService interface {
	// Upload stores the content under a generated name and returns its URL.
	Upload(ctx context.Context, r io.Reader, originalName string) (*model.UploadResponse, error)

	// Open returns a stored image by its generated name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
