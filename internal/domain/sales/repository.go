package sales

import (
	"context"
	"time"

	"ventapos/internal/core/id"
)

// ListFilter narrows sale listings.
type ListFilter struct {
	SoldBy          string
	IncludeReverted bool
	From            *time.Time
	To              *time.Time
	Limit           int
	Offset          int
}

// Repository defines persistence operations for sales.
type Repository interface {
	// CreateSale inserts the header, lines, and consumptions.
	// Must run inside the allocation transaction.
	CreateSale(ctx context.Context, s *Sale, lines []Line, consumptions []Consumption) error

	GetByID(ctx context.Context, saleID id.ID) (*Detail, error)

	// GetForUpdate loads the sale header with a row lock.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	List(ctx context.Context, filter ListFilter) ([]*Sale, error)

	// ConsumptionsBySale returns all ledger entries across the
	// sale's lines.
	ConsumptionsBySale(ctx context.Context, saleID id.ID) ([]Consumption, error)

	// MarkReverted flips the reverted flag. Returns
	// CONCURRENT_MODIFICATION if the sale was already reverted.
	MarkReverted(ctx context.Context, saleID id.ID, at time.Time) error

	// DeleteSale removes the header, lines, and consumptions.
	DeleteSale(ctx context.Context, saleID id.ID) error
}
