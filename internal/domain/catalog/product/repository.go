package product

import (
	"context"

	"ventapos/internal/core/id"
)

// ListFilter narrows product listings.
type ListFilter struct {
	CategoryID *id.ID
	Search     string
	Limit      int
	Offset     int
}

// Repository defines persistence operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	GetByName(ctx context.Context, name string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID id.ID) error

	Exists(ctx context.Context, productID id.ID) (bool, error)

	// HasBatches reports whether any batch references the product,
	// including depleted and obsolete ones.
	HasBatches(ctx context.Context, productID id.ID) (bool, error)
}
