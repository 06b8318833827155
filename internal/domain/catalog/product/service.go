package product

import (
	"context"
	"fmt"
	"time"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/tx"
	"ventapos/internal/domain/catalog/category"
	"ventapos/pkg/logger"
)

// Service provides business operations for the product catalog.
type Service struct {
	repo         Repository
	categoryRepo category.Repository
	txManager    tx.Manager
}

// NewService creates a new product service.
func NewService(repo Repository, categoryRepo category.Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:         repo,
		categoryRepo: categoryRepo,
		txManager:    txManager,
	}
}

// Create stores a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkCategory(ctx, p); err != nil {
			return err
		}
		if err := s.checkName(ctx, p); err != nil {
			return err
		}
		if err := s.checkSKU(ctx, p); err != nil {
			return err
		}
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "name", p.Name)
	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetBySKU retrieves a product by SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, filter)
}

// Update saves product changes. Price changes affect future sales
// only; captured line prices stay as they were.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, p.ID); err != nil {
			return err
		}
		if err := s.checkCategory(ctx, p); err != nil {
			return err
		}
		if err := s.checkName(ctx, p); err != nil {
			return err
		}
		if err := s.checkSKU(ctx, p); err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, p)
	})
}

// Delete removes a product that has no batches. A product with any
// ledger history, even fully depleted, is protected.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, productID); err != nil {
			return err
		}

		used, err := s.repo.HasBatches(ctx, productID)
		if err != nil {
			return fmt.Errorf("check batches: %w", err)
		}
		if used {
			return apperror.NewReferential("product", productID, "batches")
		}

		return s.repo.Delete(ctx, productID)
	})
}

func (s *Service) checkCategory(ctx context.Context, p *Product) error {
	if p.CategoryID == nil {
		return nil
	}
	if _, err := s.categoryRepo.GetByID(ctx, *p.CategoryID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("category does not exist").
				WithDetail("categoryId", *p.CategoryID)
		}
		return err
	}
	return nil
}

func (s *Service) checkName(ctx context.Context, p *Product) error {
	existing, err := s.repo.GetByName(ctx, p.Name)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != p.ID {
		return apperror.NewDuplicate("product", "name", p.Name)
	}
	return nil
}

func (s *Service) checkSKU(ctx context.Context, p *Product) error {
	if p.SKU == nil || *p.SKU == "" {
		return nil
	}
	existing, err := s.repo.GetBySKU(ctx, *p.SKU)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != p.ID {
		return apperror.NewDuplicate("product", "sku", *p.SKU)
	}
	return nil
}
