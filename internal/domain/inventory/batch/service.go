package batch

import (
	"context"
	"fmt"

	appctx "ventapos/internal/core/context"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/tx"
	"ventapos/internal/domain/catalog/product"
	"ventapos/pkg/logger"
)

// Service provides business operations for the batch ledger.
type Service struct {
	repo        Repository
	productRepo product.Repository
	txManager   tx.Manager
}

// NewService creates a new batch service.
func NewService(repo Repository, productRepo product.Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:        repo,
		productRepo: productRepo,
		txManager:   txManager,
	}
}

// Receive records a purchase batch. The acting user from context is
// recorded as the buyer.
func (s *Service) Receive(ctx context.Context, b *Batch) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}
	if b.Quantity != b.InitialQuantity {
		return apperror.NewValidation("received batch must start with full quantity").
			WithDetail("field", "quantity")
	}

	if b.BoughtBy == "" {
		b.BoughtBy = appctx.GetUsername(ctx)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.productRepo.Exists(ctx, b.ProductID)
		if err != nil {
			return fmt.Errorf("check product: %w", err)
		}
		if !exists {
			return apperror.NewNotFound("product", b.ProductID)
		}
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "batch received",
		"id", b.ID,
		"product_id", b.ProductID,
		"quantity", b.Quantity,
		"unit_cost", b.UnitCost,
	)
	return nil
}

// GetByID retrieves a batch.
func (s *Service) GetByID(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// List retrieves batches with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Batch, error) {
	return s.repo.List(ctx, filter)
}

// AvailableBatches returns the FIFO-ordered available batches for a
// product.
func (s *Service) AvailableBatches(ctx context.Context, productID id.ID) ([]*Batch, error) {
	return s.repo.Available(ctx, productID)
}

// OnHand returns total available quantity for a product.
func (s *Service) OnHand(ctx context.Context, productID id.ID) (int64, error) {
	return s.repo.TotalAvailable(ctx, productID)
}

// SetObsolete marks a batch obsolete or restores it. Obsolete batches
// keep their quantity but are skipped by allocation.
func (s *Service) SetObsolete(ctx context.Context, batchID id.ID, obsolete bool) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, batchID); err != nil {
			return err
		}
		return s.repo.SetObsolete(ctx, batchID, obsolete)
	})
}

// Delete removes a batch nothing has been sold from. A batch with
// consumption history is protected even when the consuming sales were
// reverted.
func (s *Service) Delete(ctx context.Context, batchID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, batchID); err != nil {
			return err
		}

		used, err := s.repo.HasConsumptions(ctx, batchID)
		if err != nil {
			return fmt.Errorf("check consumptions: %w", err)
		}
		if used {
			return apperror.NewReferential("batch", batchID, "consumptions")
		}

		return s.repo.Delete(ctx, batchID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "batch deleted", "id", batchID)
	return nil
}
