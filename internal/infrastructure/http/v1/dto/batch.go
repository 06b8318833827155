package dto

import (
	"time"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/types"
	"ventapos/internal/domain/inventory/batch"
)

// ReceiveBatchRequest for recording a purchase batch.
type ReceiveBatchRequest struct {
	ProductID   string      `json:"productId" binding:"required"`
	Quantity    int64       `json:"quantity" binding:"required"`
	UnitCost    types.Money `json:"unitCost"`
	PurchasedAt *time.Time  `json:"purchasedAt"`
}

// ToEntity converts the request to a batch.
func (r ReceiveBatchRequest) ToEntity() (*batch.Batch, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return nil, apperror.NewValidation("invalid product id").
			WithDetail("field", "productId")
	}

	purchasedAt := time.Now().UTC()
	if r.PurchasedAt != nil {
		purchasedAt = *r.PurchasedAt
	}
	return batch.NewBatch(productID, r.Quantity, r.UnitCost, purchasedAt), nil
}

// SetObsoleteRequest marks a batch obsolete or restores it.
type SetObsoleteRequest struct {
	Obsolete bool `json:"obsolete"`
}

// BatchResponse contains batch fields.
type BatchResponse struct {
	ID              string      `json:"id"`
	ProductID       string      `json:"productId"`
	InitialQuantity int64       `json:"initialQuantity"`
	Quantity        int64       `json:"quantity"`
	UnitCost        types.Money `json:"unitCost"`
	PurchasedAt     time.Time   `json:"purchasedAt"`
	BoughtBy        string      `json:"boughtBy"`
	ObsoleteAt      *time.Time  `json:"obsoleteAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// FromBatch creates BatchResponse.
func FromBatch(b *batch.Batch) *BatchResponse {
	return &BatchResponse{
		ID:              b.ID.String(),
		ProductID:       b.ProductID.String(),
		InitialQuantity: b.InitialQuantity,
		Quantity:        b.Quantity,
		UnitCost:        b.UnitCost,
		PurchasedAt:     b.PurchasedAt,
		BoughtBy:        b.BoughtBy,
		ObsoleteAt:      b.ObsoleteAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// FromBatches maps a batch slice.
func FromBatches(batches []*batch.Batch) []*BatchResponse {
	out := make([]*BatchResponse, len(batches))
	for i, b := range batches {
		out[i] = FromBatch(b)
	}
	return out
}
