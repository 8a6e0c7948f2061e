// Package store provides the in-memory product collection and its accessors.
package store

import (
	"context"
	"time"
)

// Product represents a product record in the catalog.
type Product struct {
	ID        int64
	Name      string
	Sku       string
	Price     float64
	Stock     float64
	Category  string
	CreatedAt time.Time
}

// CatalogStore is the interface for product storage operations.
// It abstracts the underlying data store; the only shipped implementation is
// the in-memory one, which owns the product collection and the id sequence
// exclusively.
type CatalogStore interface {
	// Insert adds a fully validated product, assigns it the next id in the
	// sequence and returns the stored record. It never fails; validation
	// happens upstream.
	Insert(ctx context.Context, p Product) (*Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindBySku retrieves a product by its exact sku (case-sensitive).
	// Returns ErrProductNotFound if no product has the given sku.
	FindBySku(ctx context.Context, sku string) (*Product, error)

	// FindAll returns all products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// FindByCategory returns all products with the given category, in
	// insertion order.
	FindByCategory(ctx context.Context, category string) ([]Product, error)

	// SearchByKeyword returns all products whose name or sku contains the
	// keyword, case-insensitively.
	SearchByKeyword(ctx context.Context, keyword string) ([]Product, error)

	// UpdatePrice overwrites a product's price and returns the updated record.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdatePrice(ctx context.Context, id int64, price float64) (*Product, error)

	// UpdateStock overwrites a product's stock level and returns the updated
	// record. Returns ErrProductNotFound if no product exists with the given ID.
	UpdateStock(ctx context.Context, id int64, stock float64) (*Product, error)
}
