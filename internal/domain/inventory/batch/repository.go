package batch

import (
	"context"

	"ventapos/internal/core/id"
)

// QuantityChange is a delta applied to one batch's remaining quantity.
// Negative for consumption, positive for reversal restore.
type QuantityChange struct {
	BatchID id.ID
	Delta   int64
}

// ListFilter narrows batch listings.
type ListFilter struct {
	ProductID       *id.ID
	IncludeDepleted bool
	Limit           int
	Offset          int
}

// Repository defines persistence operations for the batch ledger.
type Repository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, batchID id.ID) (*Batch, error)
	List(ctx context.Context, filter ListFilter) ([]*Batch, error)
	Delete(ctx context.Context, batchID id.ID) error

	// Available returns available batches for a product ordered
	// oldest first (purchased_at, then id).
	Available(ctx context.Context, productID id.ID) ([]*Batch, error)

	// AvailableForUpdate is Available with row locks. Must run
	// inside a transaction; the lock order (purchased_at, id) is
	// fixed to keep concurrent allocations deadlock-free.
	AvailableForUpdate(ctx context.Context, productID id.ID) ([]*Batch, error)

	// LockByIDs loads the given batches with row locks, ordered by
	// purchased_at then id.
	LockByIDs(ctx context.Context, batchIDs []id.ID) ([]*Batch, error)

	// TotalAvailable sums remaining quantity over available batches.
	TotalAvailable(ctx context.Context, productID id.ID) (int64, error)

	// ApplyQuantityChanges applies deltas in one statement. The
	// database check constraints back up the service-level bounds.
	ApplyQuantityChanges(ctx context.Context, changes []QuantityChange) error

	SetObsolete(ctx context.Context, batchID id.ID, obsolete bool) error

	// HasConsumptions reports whether any consumption references the
	// batch.
	HasConsumptions(ctx context.Context, batchID id.ID) (bool, error)
}
