package dto

import (
	"time"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/types"
	"ventapos/internal/domain/catalog/product"
)

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	CategoryID      *string     `json:"categoryId"`
	Name            string      `json:"name" binding:"required"`
	SKU             *string     `json:"sku"`
	ListPrice       types.Money `json:"listPrice"`
	InventoryTarget int64       `json:"inventoryTarget"`
	Description     *string     `json:"description"`
}

// ToEntity converts the request to a product.
func (r CreateProductRequest) ToEntity() (*product.Product, error) {
	p := product.NewProduct(r.Name, r.ListPrice)
	p.SKU = r.SKU
	p.InventoryTarget = r.InventoryTarget
	p.Description = r.Description

	if r.CategoryID != nil && *r.CategoryID != "" {
		categoryID, err := id.Parse(*r.CategoryID)
		if err != nil {
			return nil, apperror.NewValidation("invalid category id").
				WithDetail("field", "categoryId")
		}
		p.CategoryID = &categoryID
	}
	return p, nil
}

// UpdateProductRequest for updating products. Nil fields stay as is.
type UpdateProductRequest struct {
	CategoryID      *string      `json:"categoryId"`
	Name            *string      `json:"name"`
	SKU             *string      `json:"sku"`
	ListPrice       *types.Money `json:"listPrice"`
	InventoryTarget *int64       `json:"inventoryTarget"`
	Description     *string      `json:"description"`
}

// ApplyTo merges the request into an existing product.
func (r UpdateProductRequest) ApplyTo(p *product.Product) error {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.SKU != nil {
		p.SKU = r.SKU
	}
	if r.ListPrice != nil {
		p.ListPrice = *r.ListPrice
	}
	if r.InventoryTarget != nil {
		p.InventoryTarget = *r.InventoryTarget
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	if r.CategoryID != nil {
		if *r.CategoryID == "" {
			p.CategoryID = nil
		} else {
			categoryID, err := id.Parse(*r.CategoryID)
			if err != nil {
				return apperror.NewValidation("invalid category id").
					WithDetail("field", "categoryId")
			}
			p.CategoryID = &categoryID
		}
	}
	return nil
}

// ProductResponse contains product fields.
type ProductResponse struct {
	ID              string      `json:"id"`
	CategoryID      *string     `json:"categoryId,omitempty"`
	Name            string      `json:"name"`
	SKU             *string     `json:"sku,omitempty"`
	ListPrice       types.Money `json:"listPrice"`
	InventoryTarget int64       `json:"inventoryTarget"`
	Description     *string     `json:"description,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// FromProduct creates ProductResponse.
func FromProduct(p *product.Product) *ProductResponse {
	resp := &ProductResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		SKU:             p.SKU,
		ListPrice:       p.ListPrice,
		InventoryTarget: p.InventoryTarget,
		Description:     p.Description,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.CategoryID != nil {
		s := p.CategoryID.String()
		resp.CategoryID = &s
	}
	return resp
}

// ProductStockResponse is a product with its derived stock values.
// All values come from the batch ledger at read time.
type ProductStockResponse struct {
	ProductResponse
	OnHand       int64       `json:"onHand"`
	InventoryLow bool        `json:"inventoryLow"`
	StockValue   types.Money `json:"stockValue"`
	RetailValue  types.Money `json:"retailValue"`
}
