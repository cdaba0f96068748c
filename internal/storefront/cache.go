package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"onefine/internal/model"

	"github.com/rs/zerolog"
)

// FetchError reports that the catalogue could not be loaded.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load products: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// LoadResult describes the outcome of Cache.Load.
type LoadResult struct {
	Products []model.Product
	// Demo is set when the demo catalogue was installed after a failed fetch.
	Demo bool
	// Err is the fetch failure that triggered the demo catalogue.
	Err error
}

// API is the subset of Client the cache needs.
type API interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, token string, input model.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, token, id string, patch model.ProductPatch) (*model.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error
	UploadImage(ctx context.Context, token, filename string, r io.Reader) (string, error)
}

// Cache holds the client's current view of the catalogue and keeps it in
// step with successful mutations. A failed call never changes the view.
type Cache struct {
	api          API
	demoFallback bool
	logger       zerolog.Logger

	mu       sync.RWMutex
	products []model.Product
	demo     bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithDemoFallback makes Load install the demo catalogue when the fetch fails.
func WithDemoFallback() CacheOption {
	return func(c *Cache) { c.demoFallback = true }
}

// WithCacheLogger sets the cache's logger.
func WithCacheLogger(logger zerolog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger.With().Str("component", "storefront-cache").Logger()
	}
}

// NewCache creates an empty cache over api.
func NewCache(api API, opts ...CacheOption) *Cache {
	c := &Cache{
		api:      api,
		logger:   zerolog.Nop(),
		products: []model.Product{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DemoProducts returns the offline demo catalogue.
func DemoProducts() []model.Product {
	products := model.DefaultProducts()
	for i := range products {
		products[i].ID = fmt.Sprintf("demo-%d", i+1)
	}
	return products
}

// Load fetches the catalogue and replaces the view.
func (c *Cache) Load(ctx context.Context) (*LoadResult, error) {
	products, err := c.api.ListProducts(ctx)
	if err != nil {
		if !c.demoFallback {
			return nil, &FetchError{Err: err}
		}

		c.logger.Warn().Err(err).Msg("catalogue unavailable, showing demo products")
		demo := DemoProducts()

		c.mu.Lock()
		c.products = demo
		c.demo = true
		c.mu.Unlock()

		return &LoadResult{Products: cloneProducts(demo), Demo: true, Err: err}, nil
	}

	c.mu.Lock()
	c.products = cloneProducts(products)
	c.demo = false
	c.mu.Unlock()

	return &LoadResult{Products: products}, nil
}

// Products returns a snapshot of the current view.
func (c *Cache) Products() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneProducts(c.products)
}

// IsDemo reports whether the view holds the demo catalogue.
func (c *Cache) IsDemo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.demo
}

// AddProduct creates a product and puts it at the front of the view.
func (c *Cache) AddProduct(ctx context.Context, token string, input model.ProductInput) (*model.Product, error) {
	created, err := c.api.CreateProduct(ctx, token, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.products = append([]model.Product{*created}, c.products...)
	c.mu.Unlock()

	return created, nil
}

// UpdateProduct updates a product and replaces it in place.
func (c *Cache) UpdateProduct(ctx context.Context, token, id string, patch model.ProductPatch) (*model.Product, error) {
	updated, err := c.api.UpdateProduct(ctx, token, id, patch)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i := range c.products {
		if c.products[i].ID == updated.ID {
			c.products[i] = *updated
			break
		}
	}
	c.mu.Unlock()

	return updated, nil
}

// DeleteProduct deletes a product and drops it from the view.
func (c *Cache) DeleteProduct(ctx context.Context, token, id string) error {
	if err := c.api.DeleteProduct(ctx, token, id); err != nil {
		return err
	}

	c.mu.Lock()
	kept := c.products[:0]
	for _, p := range c.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.products = kept
	c.mu.Unlock()

	return nil
}

// UploadImage stores an image and returns its URL. The view is unchanged.
func (c *Cache) UploadImage(ctx context.Context, token, filename string, r io.Reader) (string, error) {
	if r == nil {
		return "", model.ErrNoFileProvided
	}
	return c.api.UploadImage(ctx, token, filename, r)
}

// IsUnauthorised reports whether err is a 401 from the API.
func IsUnauthorised(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func cloneProducts(products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	copy(out, products)
	return out
}
