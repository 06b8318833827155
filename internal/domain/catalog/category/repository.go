package category

import (
	"context"

	"ventapos/internal/core/id"
)

// Repository defines persistence operations for categories.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, categoryID id.ID) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, categoryID id.ID) error

	// HasProducts reports whether any product references the category.
	HasProducts(ctx context.Context, categoryID id.ID) (bool, error)
}
