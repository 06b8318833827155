// Package category provides the product category catalog.
package category

import (
	"context"
	"strings"
	"time"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
)

// Category groups products for navigation and pricing reviews.
type Category struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// Description is optional free text.
	Description *string `db:"description" json:"description,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewCategory creates a category with a generated id.
func NewCategory(name string) *Category {
	now := time.Now().UTC()
	return &Category{
		ID:        id.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks invariants before persistence.
func (c *Category) Validate(_ context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("category name is required").
			WithDetail("field", "name")
	}
	if len(c.Name) > 255 {
		return apperror.NewValidation("category name is too long").
			WithDetail("field", "name").
			WithDetail("max", 255)
	}
	return nil
}
