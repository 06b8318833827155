// Package inventory_repo provides the PostgreSQL implementation of
// the batch ledger repository.
package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/domain/inventory/batch"
	"ventapos/internal/infrastructure/storage/postgres"
)

const batchesTable = "batches"

var batchColumns = []string{
	"id", "product_id", "initial_quantity", "quantity", "unit_cost",
	"purchased_at", "bought_by", "obsolete_at", "created_at", "updated_at",
}

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txm *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	q := r.builder.Insert(batchesTable).
		Columns(batchColumns...).
		Values(b.ID, b.ProductID, b.InitialQuantity, b.Quantity, b.UnitCost,
			b.PurchasedAt, b.BoughtBy, b.ObsoleteAt, b.CreatedAt, b.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "batch")
	}
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b batch.Batch
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		return nil, postgres.MapError(err, "batch")
	}
	return &b, nil
}

func (r *BatchRepo) List(ctx context.Context, filter batch.ListFilter) ([]*batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		OrderBy("purchased_at", "id")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if !filter.IncludeDepleted {
		q = q.Where(squirrel.Gt{"quantity": 0})
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

	var batches []*batch.Batch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, postgres.MapError(err, "batch")
	}
	return batches, nil
}

func (r *BatchRepo) Delete(ctx context.Context, batchID id.ID) error {
	q := r.builder.Delete(batchesTable).
		Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "batch")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID)
	}
	return nil
}

func (r *BatchRepo) Available(ctx context.Context, productID id.ID) ([]*batch.Batch, error) {
	return r.available(ctx, productID, false)
}

// AvailableForUpdate locks the product's available batches in FIFO
// order. The fixed (purchased_at, id) order keeps concurrent
// allocations from deadlocking against each other.
func (r *BatchRepo) AvailableForUpdate(ctx context.Context, productID id.ID) ([]*batch.Batch, error) {
	return r.available(ctx, productID, true)
}

func (r *BatchRepo) available(ctx context.Context, productID id.ID, forUpdate bool) ([]*batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Gt{"quantity": 0}).
		Where(squirrel.Eq{"obsolete_at": nil}).
		OrderBy("purchased_at", "id")
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*batch.Batch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, postgres.MapError(err, "batch")
	}
	return batches, nil
}

func (r *BatchRepo) LockByIDs(ctx context.Context, batchIDs []id.ID) ([]*batch.Batch, error) {
	if len(batchIDs) == 0 {
		return nil, nil
	}

	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"id": batchIDs}).
		OrderBy("purchased_at", "id").
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*batch.Batch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, postgres.MapError(err, "batch")
	}
	return batches, nil
}

func (r *BatchRepo) TotalAvailable(ctx context.Context, productID id.ID) (int64, error) {
	q := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(batchesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"obsolete_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &total, sql, args...); err != nil {
		return 0, postgres.MapError(err, "batch")
	}
	return total, nil
}

// ApplyQuantityChanges applies deltas in one statement per batch. The
// batches_quantity_check constraint rejects any delta the service
// failed to bound.
func (r *BatchRepo) ApplyQuantityChanges(ctx context.Context, changes []batch.QuantityChange) error {
	if len(changes) == 0 {
		return nil
	}

	for _, ch := range changes {
		q := r.builder.Update(batchesTable).
			Set("quantity", squirrel.Expr("quantity + ?", ch.Delta)).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": ch.BatchID})

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}

		tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
		if err != nil {
			return postgres.MapError(err, "batch")
		}
		if tag.RowsAffected() == 0 {
			return apperror.NewNotFound("batch", ch.BatchID)
		}
	}
	return nil
}

func (r *BatchRepo) SetObsolete(ctx context.Context, batchID id.ID, obsolete bool) error {
	q := r.builder.Update(batchesTable).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": batchID})
	if obsolete {
		q = q.Set("obsolete_at", squirrel.Expr("now()"))
	} else {
		q = q.Set("obsolete_at", nil)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "batch")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID)
	}
	return nil
}

func (r *BatchRepo) HasConsumptions(ctx context.Context, batchID id.ID) (bool, error) {
	q := r.builder.Select("1").
		From("consumptions").
		Where(squirrel.Eq{"batch_id": batchID}).
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
		return false, postgres.MapError(err, "batch")
	}
	return true, nil
}
