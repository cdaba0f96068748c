package service

import (
	"context"
	"strings"

	"onefine/internal/metrics"
	"onefine/internal/model"
	"onefine/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	metrics     metrics.Recorder
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, recorder metrics.Recorder, logger zerolog.Logger) ProductService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &productService{
		productRepo: productRepo,
		metrics:     recorder,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List returns every product.
func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, model.StorageError(err)
	}

	s.logger.Debug().Int("count", len(products)).Msg("listed products")

	return products, nil
}

// Create validates and stores a new product. Ratings are clamped into range.
func (s *productService) Create(ctx context.Context, input model.ProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	price := strings.TrimSpace(input.Price)

	if name == "" {
		return nil, model.NewValidationError("name is required")
	}
	if price == "" {
		return nil, model.NewValidationError("price is required")
	}

	rating := model.DefaultRating
	if input.Rating != nil {
		rating = model.ClampRating(*input.Rating)
	}

	product, err := s.productRepo.Create(ctx, &model.Product{
		Name:   name,
		Price:  price,
		Rating: rating,
		Image:  strings.TrimSpace(input.Image),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to create product")
		return nil, model.StorageError(err)
	}

	s.metrics.RecordProductMutation(metrics.OpCreate)
	s.logger.Info().Str("product_id", product.ID).Str("name", product.Name).Msg("product created")

	return product, nil
}

// Update applies the provided fields. A provided name or price must not be blank.
func (s *productService) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.ErrProductNotFound
	}

	normalised, err := normalisePatch(patch)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.Update(ctx, id, normalised)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to update product")
		return nil, model.StorageError(err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found for update")
		return nil, model.ErrProductNotFound
	}

	s.metrics.RecordProductMutation(metrics.OpUpdate)
	s.logger.Info().Str("product_id", id).Msg("product updated")

	return product, nil
}

// Delete removes a product. Any image it referenced stays in the upload store.
func (s *productService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return model.ErrProductNotFound
	}

	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return model.StorageError(err)
	}

	if !deleted {
		s.logger.Debug().Str("product_id", id).Msg("product not found for delete")
		return model.ErrProductNotFound
	}

	s.metrics.RecordProductMutation(metrics.OpDelete)
	s.logger.Info().Str("product_id", id).Msg("product deleted")

	return nil
}

// SeedDefaults inserts the default catalogue into an empty store.
func (s *productService) SeedDefaults(ctx context.Context) (int, error) {
	inserted, err := s.productRepo.SeedIfEmpty(ctx, model.DefaultProducts())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to seed default products")
		return 0, model.StorageError(err)
	}

	if inserted > 0 {
		s.metrics.RecordProductMutation(metrics.OpSeed)
		s.logger.Info().Int("count", inserted).Msg("seeded default products")
	}

	return inserted, nil
}

// normalisePatch trims text fields, rejects blank required fields and clamps the rating.
func normalisePatch(patch model.ProductPatch) (model.ProductPatch, error) {
	var out model.ProductPatch

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return out, model.NewValidationError("name cannot be empty")
		}
		out.Name = &name
	}

	if patch.Price != nil {
		price := strings.TrimSpace(*patch.Price)
		if price == "" {
			return out, model.NewValidationError("price cannot be empty")
		}
		out.Price = &price
	}

	if patch.Rating != nil {
		rating := model.ClampRating(*patch.Rating)
		out.Rating = &rating
	}

	if patch.Image != nil {
		image := strings.TrimSpace(*patch.Image)
		out.Image = &image
	}

	return out, nil
}
