package batch

import (
	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/types"
)

// Draw is one batch's contribution to an allocation. The unit cost is
// carried along so consumptions can be written without re-reading the
// batch.
type Draw struct {
	BatchID  id.ID
	Quantity int64
	UnitCost types.Money
}

// Allocate plans a FIFO draw of requested units from the given batches.
//
// Batches must already be ordered oldest first (purchased_at, then id)
// and filtered to available ones; Allocate skips any that are not, as
// a safety net. The input is never mutated: on success the caller
// applies the draws, on failure nothing has changed.
//
// Either the full request is planned or an error is returned. A partial
// draw is never produced.
func Allocate(productID id.ID, batches []*Batch, requested int64) ([]Draw, error) {
	if requested <= 0 {
		return nil, apperror.NewInvalidQuantity(requested)
	}

	var draws []Draw
	remaining := requested
	for _, b := range batches {
		if !b.IsAvailable() {
			continue
		}
		take := b.Quantity
		if take > remaining {
			take = remaining
		}
		draws = append(draws, Draw{
			BatchID:  b.ID,
			Quantity: take,
			UnitCost: b.UnitCost,
		})
		remaining -= take
		if remaining == 0 {
			return draws, nil
		}
	}

	available := requested - remaining
	return nil, apperror.NewInsufficientStock(productID.String(), requested, available)
}
