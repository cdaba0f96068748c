package repository

import (
	"context"
	"errors"
	"fmt"

	"onefine/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// seedLockKey serialises concurrent seeding across processes.
const seedLockKey = 0x6f6e6566696e65 // "onefine"

const productColumns = `id::text, name, price, rating, image, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// List retrieves all products, most recently created first.
func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		r.logger.Debug().Str("product_id", id).Msg("malformed product ID")
		return nil, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// Create inserts a product and returns the stored row.
func (r *productRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	query := `
		INSERT INTO products (id, name, price, rating, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns

	id := uuid.NewString()
	p, err := scanProduct(r.pool.QueryRow(ctx, query,
		id, product.Name, product.Price, product.Rating, product.Image,
	))
	if err != nil {
		r.logger.Error().Err(err).Str("name", product.Name).Msg("failed to insert product")
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID).Msg("product created")

	return p, nil
}

// Update applies the non-nil patch fields in a single statement.
func (r *productRepository) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		r.logger.Debug().Str("product_id", id).Msg("malformed product ID")
		return nil, nil
	}

	query := `
		UPDATE products SET
			name       = COALESCE($2, name),
			price      = COALESCE($3, price),
			rating     = COALESCE($4, rating),
			image      = COALESCE($5, image),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query,
		id, patch.Name, patch.Price, patch.Rating, patch.Image,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found for update")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return p, nil
}

// Delete removes a product by ID.
func (r *productRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		r.logger.Debug().Str("product_id", id).Msg("malformed product ID")
		return false, nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Count returns the number of stored products.
func (r *productRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// SeedIfEmpty inserts products when the table is empty. The check and the
// inserts run in one transaction under an advisory lock.
func (r *productRepository) SeedIfEmpty(ctx context.Context, products []model.Product) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin seed transaction")
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.Error().Err(rbErr).Msg("failed to rollback seed transaction")
		}
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(seedLockKey)); err != nil {
		return 0, fmt.Errorf("failed to acquire seed lock: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		r.logger.Debug().Int("existing", count).Msg("store not empty, skipping seed")
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i, p := range products {
		// Stagger timestamps so the newest-first order matches the seed order.
		batch.Queue(`
			INSERT INTO products (id, name, price, rating, image, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW() - make_interval(secs => $6), NOW() - make_interval(secs => $6))
		`, uuid.NewString(), p.Name, p.Price, model.ClampRating(p.Rating), p.Image, float64(i))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error().Err(err).Msg("failed to insert seed products")
		return 0, fmt.Errorf("failed to insert seed products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	r.logger.Info().Int("count", len(products)).Msg("seeded default products")

	return len(products), nil
}

// scanProduct reads one product from a row produced with productColumns.
func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Rating, &p.Image, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
