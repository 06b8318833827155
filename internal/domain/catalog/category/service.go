package category

import (
	"context"
	"fmt"
	"time"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/tx"
	"ventapos/pkg/logger"
)

// Service provides business operations for the category catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new category service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create stores a new category. Names are unique.
func (s *Service) Create(ctx context.Context, c *Category) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.repo.GetByName(ctx, c.Name); err == nil && existing != nil {
			return apperror.NewDuplicate("category", "name", c.Name)
		} else if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "category created", "id", c.ID, "name", c.Name)
	return nil
}

// GetByID retrieves a category.
func (s *Service) GetByID(ctx context.Context, categoryID id.ID) (*Category, error) {
	return s.repo.GetByID(ctx, categoryID)
}

// List retrieves all categories ordered by name.
func (s *Service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.List(ctx)
}

// Update saves category changes. The name must stay unique.
func (s *Service) Update(ctx context.Context, c *Category) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.repo.GetByName(ctx, c.Name); err == nil && existing != nil && existing.ID != c.ID {
			return apperror.NewDuplicate("category", "name", c.Name)
		} else if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		c.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, c)
	})
}

// Delete removes a category that no product references.
func (s *Service) Delete(ctx context.Context, categoryID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, categoryID); err != nil {
			return err
		}

		used, err := s.repo.HasProducts(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("check products: %w", err)
		}
		if used {
			return apperror.NewReferential("category", categoryID, "products")
		}

		return s.repo.Delete(ctx, categoryID)
	})
}
