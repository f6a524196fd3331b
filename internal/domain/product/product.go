package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups and aggregate writes.
var (
	// ErrNotFound is returned when a requested product does not exist or is
	// no longer active.
	ErrNotFound = errors.New("product not found")
	// ErrVersionConflict is returned by conditional aggregate writes when the
	// product row changed since it was read. Callers re-read and retry.
	ErrVersionConflict = errors.New("product version conflict")
)

// Product represents a catalog item available for purchase.
//
// Rating and ReviewCount are derived from the product's comments and are only
// ever written through UpdateAggregates. Stock is only decremented inside the
// order fulfillment transaction and re-incremented on cancellation.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Brand       string
	Price       decimal.Decimal
	Stock       int
	Rating      decimal.Decimal
	ReviewCount int
	IsActive    bool

	// Version is bumped on every aggregate write and guards the
	// read-compute-write cycle of the rating aggregator.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines catalog operations backed by the record store.
type Repository interface {
	// List returns one page of active products, newest first, together with
	// the total count of matching products. A non-empty search term filters
	// by name or description.
	List(ctx context.Context, page Page, search string) ([]Product, int, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	// Categories returns the distinct non-empty categories of active products.
	Categories(ctx context.Context) ([]string, error)
	// UpdateAggregates conditionally writes the derived rating fields. The
	// write commits only if the product's version still equals
	// expectedVersion; otherwise ErrVersionConflict is returned.
	UpdateAggregates(ctx context.Context, id string, rating decimal.Decimal, reviewCount int, expectedVersion int64) error
	Create(ctx context.Context, p *Product) error
}
