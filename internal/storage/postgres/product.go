package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/hallertau/storefront/internal/domain/product"
)

const (
	productColumns = `id, name, description, category, brand, price, stock,
		rating, review_count, is_active, version, created_at, updated_at`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE is_active AND ($3 = '' OR name ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	countProductsSQL = `SELECT count(*) FROM products
		WHERE is_active AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND is_active`

	productCategoriesSQL = `SELECT DISTINCT category FROM products
		WHERE is_active AND category <> '' ORDER BY category`

	updateAggregatesSQL = `UPDATE products
		SET rating = $2, review_count = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4`

	createProductSQL = `INSERT INTO products
		(id, name, description, category, brand, price, stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of active products plus the total matching count.
// The page and count queries run concurrently.
func (r *ProductRepository) List(ctx context.Context, page product.Page, search string) ([]product.Product, int, error) {
	var (
		products []product.Product
		total    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, listProductsSQL, page.Size, page.Offset(), search)
		if err != nil {
			return fmt.Errorf("listing products: %w", err)
		}
		products, err = pgx.CollectRows(rows, scanProduct)
		return err
	})
	g.Go(func() error {
		if err := r.pool.QueryRow(gctx, countProductsSQL, search).Scan(&total); err != nil {
			return fmt.Errorf("counting products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID returns a single active product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Categories returns the distinct non-empty categories of active products.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, productCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// UpdateAggregates writes the derived rating fields, conditional on the
// version observed by the caller. A row that moved on returns
// product.ErrVersionConflict so the aggregator can re-read and retry.
func (r *ProductRepository) UpdateAggregates(ctx context.Context, id string, rating decimal.Decimal, reviewCount int, expectedVersion int64) error {
	tag, err := r.pool.Exec(ctx, updateAggregatesSQL, id, rating, reviewCount, expectedVersion)
	if err != nil {
		return fmt.Errorf("updating aggregates for product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the product is gone or the version moved.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return product.ErrVersionConflict
	}
	return nil
}

// Create inserts a catalog product. Used by seeding.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Description, p.Category, p.Brand, p.Price, p.Stock, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Brand, &p.Price, &p.Stock,
		&p.Rating, &p.ReviewCount, &p.IsActive, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
