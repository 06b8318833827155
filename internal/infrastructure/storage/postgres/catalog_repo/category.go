// Package catalog_repo provides PostgreSQL implementations for the
// catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/domain/catalog/category"
	"ventapos/internal/infrastructure/storage/postgres"
)

const categoriesTable = "categories"

var categoryColumns = []string{
	"id", "name", "description", "created_at", "updated_at",
}

// CategoryRepo implements category.Repository.
type CategoryRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txm *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CategoryRepo) Create(ctx context.Context, c *category.Category) error {
	q := r.builder.Insert(categoriesTable).
		Columns(categoryColumns...).
		Values(c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "category")
	}
	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, categoryID id.ID) (*category.Category, error) {
	return r.getOne(ctx, squirrel.Eq{"id": categoryID})
}

func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*category.Category, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name})
}

func (r *CategoryRepo) getOne(ctx context.Context, where squirrel.Eq) (*category.Category, error) {
	q := r.builder.Select(categoryColumns...).
		From(categoriesTable).
		Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c category.Category
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		return nil, postgres.MapError(err, "category")
	}
	return &c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]*category.Category, error) {
	q := r.builder.Select(categoryColumns...).
		From(categoriesTable).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var categories []*category.Category
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &categories, sql, args...); err != nil {
		return nil, postgres.MapError(err, "category")
	}
	return categories, nil
}

func (r *CategoryRepo) Update(ctx context.Context, c *category.Category) error {
	q := r.builder.Update(categoriesTable).
		Set("name", c.Name).
		Set("description", c.Description).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "category")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("category", c.ID)
	}
	return nil
}

func (r *CategoryRepo) Delete(ctx context.Context, categoryID id.ID) error {
	q := r.builder.Delete(categoriesTable).
		Where(squirrel.Eq{"id": categoryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "category")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("category", categoryID)
	}
	return nil
}

func (r *CategoryRepo) HasProducts(ctx context.Context, categoryID id.ID) (bool, error) {
	q := r.builder.Select("1").
		From("products").
		Where(squirrel.Eq{"category_id": categoryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &one, sql, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, postgres.MapError(err, "category")
	}
	return true, nil
}
