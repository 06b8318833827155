// Package product provides the product catalog.
// Products carry the list price and the inventory target; actual stock
// lives in the batch ledger and is never cached on the product row.
package product

import (
	"context"
	"strings"
	"time"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/types"
)

// Product represents a sellable item.
type Product struct {
	ID         id.ID  `db:"id" json:"id"`
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`

	Name string `db:"name" json:"name"`

	// SKU is the optional stock keeping unit, unique when present.
	SKU *string `db:"sku" json:"sku,omitempty"`

	// ListPrice is the default selling price per unit. Sale lines
	// capture their own price at sale time; changing the list price
	// never rewrites history.
	ListPrice types.Money `db:"list_price" json:"listPrice"`

	// InventoryTarget is the desired on-hand quantity used by the
	// low-inventory check. Zero disables the check.
	InventoryTarget int64 `db:"inventory_target" json:"inventoryTarget"`

	Description *string `db:"description" json:"description,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a product with a generated id.
func NewProduct(name string, listPrice types.Money) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        id.New(),
		Name:      name,
		ListPrice: listPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks invariants before persistence.
func (p *Product) Validate(_ context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("product name is required").
			WithDetail("field", "name")
	}
	if p.ListPrice.IsNegative() {
		return apperror.NewValidation("list price cannot be negative").
			WithDetail("field", "listPrice")
	}
	if p.InventoryTarget < 0 {
		return apperror.NewValidation("inventory target cannot be negative").
			WithDetail("field", "inventoryTarget")
	}
	return nil
}

// IsInventoryLow reports whether on-hand stock is below the target.
// Computed from an explicitly loaded quantity, never from cached state.
func (p *Product) IsInventoryLow(onHand int64) bool {
	if p.InventoryTarget <= 0 {
		return false
	}
	return onHand < p.InventoryTarget
}

// RetailValue is the list-price value of the given on-hand quantity.
func (p *Product) RetailValue(onHand int64) types.Money {
	return types.MulQty(p.ListPrice, onHand)
}
