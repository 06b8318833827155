// Package sales_repo provides the PostgreSQL implementation of the
// sales repository.
package sales_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/domain/sales"
	"ventapos/internal/infrastructure/storage/postgres"
)

const (
	salesTable        = "sales"
	saleLinesTable    = "sale_lines"
	consumptionsTable = "consumptions"
)

var saleColumns = []string{
	"id", "sold_by", "reverted", "reverted_at", "note", "sold_at", "created_at",
}

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewSaleRepo creates a new sales repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SaleRepo) CreateSale(ctx context.Context, s *sales.Sale, lines []sales.Line, consumptions []sales.Consumption) error {
	querier := r.txm.GetQuerier(ctx)

	q := r.builder.Insert(salesTable).
		Columns(saleColumns...).
		Values(s.ID, s.SoldBy, s.Reverted, s.RevertedAt, s.Note, s.SoldAt, s.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "sale")
	}

	if len(lines) > 0 {
		lq := r.builder.Insert(saleLinesTable).
			Columns("id", "sale_id", "product_id", "quantity", "unit_price")
		for _, l := range lines {
			lq = lq.Values(l.ID, l.SaleID, l.ProductID, l.Quantity, l.UnitPrice)
		}
		sql, args, err = lq.ToSql()
		if err != nil {
			return fmt.Errorf("build lines insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return postgres.MapError(err, "sale line")
		}
	}

	if len(consumptions) > 0 {
		cq := r.builder.Insert(consumptionsTable).
			Columns("id", "line_id", "batch_id", "quantity", "unit_cost")
		for _, c := range consumptions {
			cq = cq.Values(c.ID, c.LineID, c.BatchID, c.Quantity, c.UnitCost)
		}
		sql, args, err = cq.ToSql()
		if err != nil {
			return fmt.Errorf("build consumptions insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return postgres.MapError(err, "consumption")
		}
	}

	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Detail, error) {
	q := r.builder.Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sales.Sale
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		return nil, postgres.MapError(err, "sale")
	}

	lines, err := r.linesBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	consumptions, err := r.ConsumptionsBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	return &sales.Detail{Sale: s, Lines: lines, Consumptions: consumptions}, nil
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	q := r.builder.Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sales.Sale
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		return nil, postgres.MapError(err, "sale")
	}
	return &s, nil
}

func (r *SaleRepo) List(ctx context.Context, filter sales.ListFilter) ([]*sales.Sale, error) {
	q := r.builder.Select(saleColumns...).
		From(salesTable).
		OrderBy("sold_at DESC", "id")

	if filter.SoldBy != "" {
		q = q.Where(squirrel.Eq{"sold_by": filter.SoldBy})
	}
	if !filter.IncludeReverted {
		q = q.Where(squirrel.Eq{"reverted": false})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"sold_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"sold_at": *filter.To})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*sales.Sale
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, postgres.MapError(err, "sale")
	}
	return result, nil
}

func (r *SaleRepo) linesBySale(ctx context.Context, saleID id.ID) ([]sales.Line, error) {
	q := r.builder.Select("id", "sale_id", "product_id", "quantity", "unit_price").
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sales.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, postgres.MapError(err, "sale line")
	}
	return lines, nil
}

func (r *SaleRepo) ConsumptionsBySale(ctx context.Context, saleID id.ID) ([]sales.Consumption, error) {
	q := r.builder.Select("c.id", "c.line_id", "c.batch_id", "c.quantity", "c.unit_cost").
		From(consumptionsTable + " c").
		Join(saleLinesTable + " l ON l.id = c.line_id").
		Where(squirrel.Eq{"l.sale_id": saleID}).
		OrderBy("c.id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var consumptions []sales.Consumption
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &consumptions, sql, args...); err != nil {
		return nil, postgres.MapError(err, "consumption")
	}
	return consumptions, nil
}

// MarkReverted flips the reverted flag. The WHERE clause refuses a
// second reversal so a racing caller gets a conflict instead of a
// silent double restore.
func (r *SaleRepo) MarkReverted(ctx context.Context, saleID id.ID, at time.Time) error {
	q := r.builder.Update(salesTable).
		Set("reverted", true).
		Set("reverted_at", at).
		Where(squirrel.Eq{"id": saleID}).
		Where(squirrel.Eq{"reverted": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "sale")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("sale", saleID)
	}
	return nil
}

// DeleteSale removes the header; lines and consumptions follow via
// ON DELETE CASCADE.
func (r *SaleRepo) DeleteSale(ctx context.Context, saleID id.ID) error {
	q := r.builder.Delete(salesTable).
		Where(squirrel.Eq{"id": saleID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "sale")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID)
	}
	return nil
}
