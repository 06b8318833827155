package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	appctx "ventapos/internal/core/context"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/tx"
	"ventapos/internal/core/types"
	"ventapos/internal/domain/catalog/product"
	"ventapos/internal/domain/inventory/batch"
	"ventapos/pkg/logger"
)

// LineInput is one requested position. UnitPrice nil means "use the
// product's current list price".
type LineInput struct {
	ProductID id.ID
	Quantity  int64
	UnitPrice *types.Money
}

// SellInput describes a sale request.
type SellInput struct {
	Lines []LineInput
	Note  *string
}

// Service coordinates sales against the batch ledger.
type Service struct {
	repo        Repository
	batchRepo   batch.Repository
	productRepo product.Repository
	txManager   tx.Manager
}

// NewService creates a new sales service.
func NewService(
	repo Repository,
	batchRepo batch.Repository,
	productRepo product.Repository,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		batchRepo:   batchRepo,
		productRepo: productRepo,
		txManager:   txManager,
	}
}

// Sell allocates stock for every line and records the sale atomically.
// All lines succeed or the whole sale fails; a partial sale is never
// committed. Errors caused by a specific line carry its index in the
// "lineIndex" detail.
//
// Runs serializable: concurrent sales over the same product either
// serialize on the batch row locks or fail with SERIALIZATION_FAILURE,
// which callers may retry.
func (s *Service) Sell(ctx context.Context, input SellInput) (*Detail, error) {
	if len(input.Lines) == 0 {
		return nil, apperror.NewValidation("sale requires at least one line").
			WithDetail("field", "lines")
	}

	now := time.Now().UTC()
	sale := &Sale{
		ID:        id.New(),
		SoldBy:    appctx.GetUsername(ctx),
		Note:      input.Note,
		SoldAt:    now,
		CreatedAt: now,
	}

	var lines []Line
	var consumptions []Consumption

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		lines = lines[:0]
		consumptions = consumptions[:0]

		// Batches are locked once per product and drawn down in
		// memory, so repeated products across lines see what the
		// earlier lines already took.
		locked := make(map[id.ID][]*batch.Batch)
		deltas := make(map[id.ID]int64)

		for i, in := range input.Lines {
			line := Line{
				ID:        id.New(),
				SaleID:    sale.ID,
				ProductID: in.ProductID,
				Quantity:  in.Quantity,
			}

			prod, err := s.productRepo.GetByID(ctx, in.ProductID)
			if err != nil {
				return tagLine(err, i)
			}
			if in.UnitPrice != nil {
				line.UnitPrice = *in.UnitPrice
			} else {
				line.UnitPrice = prod.ListPrice
			}

			if err := line.Validate(ctx); err != nil {
				return tagLine(err, i)
			}

			batches, ok := locked[in.ProductID]
			if !ok {
				batches, err = s.batchRepo.AvailableForUpdate(ctx, in.ProductID)
				if err != nil {
					return fmt.Errorf("lock batches: %w", err)
				}
				locked[in.ProductID] = batches
			}

			draws, err := batch.Allocate(in.ProductID, batches, in.Quantity)
			if err != nil {
				return tagLine(err, i)
			}

			for _, d := range draws {
				consumptions = append(consumptions, Consumption{
					ID:       id.New(),
					LineID:   line.ID,
					BatchID:  d.BatchID,
					Quantity: d.Quantity,
					UnitCost: d.UnitCost,
				})
				deltas[d.BatchID] -= d.Quantity
			}
			drawDown(batches, draws)

			lines = append(lines, line)
		}

		if err := s.batchRepo.ApplyQuantityChanges(ctx, sortedChanges(deltas)); err != nil {
			return fmt.Errorf("apply draws: %w", err)
		}
		return s.repo.CreateSale(ctx, sale, lines, consumptions)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale committed",
		"id", sale.ID,
		"lines", len(lines),
		"consumptions", len(consumptions),
		"sold_by", sale.SoldBy,
	)

	return &Detail{Sale: *sale, Lines: lines, Consumptions: consumptions}, nil
}

// Revert undoes a sale by restoring every consumed unit to the batch
// it came from. Reverting an already reverted sale is a no-op.
func (s *Service) Revert(ctx context.Context, saleID id.ID) error {
	var reverted bool
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Reverted {
			reverted = false
			return nil
		}
		if err := s.revertLocked(ctx, sale); err != nil {
			return err
		}
		reverted = true
		return nil
	})
	if err != nil {
		return err
	}

	if reverted {
		logger.Info(ctx, "sale reverted", "id", saleID)
	}
	return nil
}

// Delete removes a sale. An active sale is reverted first so its
// stock returns to the ledger before the rows disappear.
func (s *Service) Delete(ctx context.Context, saleID id.ID) error {
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if !sale.Reverted {
			if err := s.revertLocked(ctx, sale); err != nil {
				return err
			}
		}
		return s.repo.DeleteSale(ctx, saleID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale deleted", "id", saleID)
	return nil
}

// GetByID retrieves the full sale aggregate.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Detail, error) {
	return s.repo.GetByID(ctx, saleID)
}

// List retrieves sale headers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Sale, error) {
	return s.repo.List(ctx, filter)
}

// revertLocked restores consumed quantities for a sale whose header
// row is already locked and not yet reverted.
//
// Restores are aggregated per batch first, then checked against the
// batch's initial quantity in one comparison. Checking draw by draw
// would pass intermediate states that the final sum violates.
func (s *Service) revertLocked(ctx context.Context, sale *Sale) error {
	consumptions, err := s.repo.ConsumptionsBySale(ctx, sale.ID)
	if err != nil {
		return fmt.Errorf("load consumptions: %w", err)
	}

	restore := make(map[id.ID]int64)
	for _, c := range consumptions {
		restore[c.BatchID] += c.Quantity
	}

	if len(restore) > 0 {
		ids := make([]id.ID, 0, len(restore))
		for batchID := range restore {
			ids = append(ids, batchID)
		}
		batches, err := s.batchRepo.LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock batches: %w", err)
		}
		if len(batches) != len(restore) {
			return apperror.NewInternal(fmt.Errorf("sale %s references %d batches, found %d", sale.ID, len(restore), len(batches)))
		}

		for _, b := range batches {
			r := restore[b.ID]
			if b.Quantity+r > b.InitialQuantity {
				return apperror.NewCorruptLedger(b.ID.String(), b.Quantity, r, b.InitialQuantity)
			}
		}

		if err := s.batchRepo.ApplyQuantityChanges(ctx, sortedChanges(restore)); err != nil {
			return fmt.Errorf("apply restores: %w", err)
		}
	}

	return s.repo.MarkReverted(ctx, sale.ID, time.Now().UTC())
}

// tagLine attaches the offending line index to an AppError.
func tagLine(err error, index int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithLine(index)
	}
	return err
}

// drawDown applies planned draws to the in-memory locked batches.
func drawDown(batches []*batch.Batch, draws []batch.Draw) {
	byID := make(map[id.ID]*batch.Batch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	for _, d := range draws {
		if b, ok := byID[d.BatchID]; ok {
			b.Quantity -= d.Quantity
		}
	}
}

// sortedChanges renders a delta map as a stable slice, ordered by
// batch id so batched updates touch rows in a fixed order.
func sortedChanges(deltas map[id.ID]int64) []batch.QuantityChange {
	changes := make([]batch.QuantityChange, 0, len(deltas))
	for batchID, delta := range deltas {
		if delta == 0 {
			continue
		}
		changes = append(changes, batch.QuantityChange{BatchID: batchID, Delta: delta})
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].BatchID.String() < changes[j].BatchID.String()
	})
	return changes
}
