// Package batch provides the purchase batch ledger.
// Every unit of stock belongs to exactly one batch; on-hand quantity
// for a product is always the sum over its available batches.
package batch

import (
	"context"
	"time"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/types"
)

// Batch is a single purchase lot.
type Batch struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// InitialQuantity is the quantity received. Immutable; the
	// reversal ceiling for this batch.
	InitialQuantity int64 `db:"initial_quantity" json:"initialQuantity"`

	// Quantity is the remaining unsold quantity.
	// Invariant: 0 <= Quantity <= InitialQuantity.
	Quantity int64 `db:"quantity" json:"quantity"`

	// UnitCost is the purchase cost per unit.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// PurchasedAt orders batches for FIFO allocation. Ties break on
	// id, which is time-ordered.
	PurchasedAt time.Time `db:"purchased_at" json:"purchasedAt"`

	// BoughtBy records the acting user at receipt.
	BoughtBy string `db:"bought_by" json:"boughtBy"`

	// ObsoleteAt, when set, excludes the batch from allocation even
	// if quantity remains (damaged or expired stock).
	ObsoleteAt *time.Time `db:"obsolete_at" json:"obsoleteAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBatch creates a batch with a generated id. Quantity starts equal
// to the initial quantity.
func NewBatch(productID id.ID, quantity int64, unitCost types.Money, purchasedAt time.Time) *Batch {
	now := time.Now().UTC()
	return &Batch{
		ID:              id.New(),
		ProductID:       productID,
		InitialQuantity: quantity,
		Quantity:        quantity,
		UnitCost:        unitCost,
		PurchasedAt:     purchasedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate checks invariants before persistence.
func (b *Batch) Validate(_ context.Context) error {
	if id.IsNil(b.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if b.InitialQuantity <= 0 {
		return apperror.NewInvalidQuantity(b.InitialQuantity)
	}
	if b.Quantity < 0 || b.Quantity > b.InitialQuantity {
		return apperror.NewValidation("quantity must be between zero and initial quantity").
			WithDetail("field", "quantity").
			WithDetail("quantity", b.Quantity).
			WithDetail("initialQuantity", b.InitialQuantity)
	}
	if b.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}
	if b.PurchasedAt.IsZero() {
		return apperror.NewValidation("purchase date is required").
			WithDetail("field", "purchasedAt")
	}
	return nil
}

// IsAvailable reports whether the batch can supply an allocation.
func (b *Batch) IsAvailable() bool {
	return b.Quantity > 0 && b.ObsoleteAt == nil
}

// IsDepleted reports whether the batch has been fully consumed.
func (b *Batch) IsDepleted() bool {
	return b.Quantity == 0
}

// TotalQuantity sums remaining quantity over available batches.
func TotalQuantity(batches []*Batch) int64 {
	var total int64
	for _, b := range batches {
		if b.IsAvailable() {
			total += b.Quantity
		}
	}
	return total
}

// StockValue is the cost value of remaining stock over available
// batches: sum of quantity * unit cost.
func StockValue(batches []*Batch) types.Money {
	total := types.Zero()
	for _, b := range batches {
		if b.IsAvailable() {
			total = total.Add(types.MulQty(b.UnitCost, b.Quantity))
		}
	}
	return total
}
