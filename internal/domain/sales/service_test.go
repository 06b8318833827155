package sales

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/types"
	"ventapos/internal/domain/catalog/product"
	"ventapos/internal/domain/inventory/batch"
)

// --- In-memory fixtures ---
//
// The fake transaction manager snapshots the store before running the
// callback and restores it on error, so atomicity behaves like a real
// rollback.

type memStore struct {
	products     map[id.ID]*product.Product
	batches      map[id.ID]*batch.Batch
	sales        map[id.ID]*Sale
	lines        map[id.ID][]Line
	consumptions map[id.ID][]Consumption
}

func newMemStore() *memStore {
	return &memStore{
		products:     make(map[id.ID]*product.Product),
		batches:      make(map[id.ID]*batch.Batch),
		sales:        make(map[id.ID]*Sale),
		lines:        make(map[id.ID][]Line),
		consumptions: make(map[id.ID][]Consumption),
	}
}

func (m *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range m.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range m.batches {
		cp := *v
		c.batches[k] = &cp
	}
	for k, v := range m.sales {
		cp := *v
		c.sales[k] = &cp
	}
	for k, v := range m.lines {
		c.lines[k] = append([]Line(nil), v...)
	}
	for k, v := range m.consumptions {
		c.consumptions[k] = append([]Consumption(nil), v...)
	}
	return c
}

type fakeTx struct {
	store *memStore
}

func (f *fakeTx) run(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := f.store.clone()
	if err := fn(ctx); err != nil {
		*f.store = *snapshot
		return err
	}
	return nil
}

func (f *fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f.run(ctx, fn)
}

func (f *fakeTx) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return f.run(ctx, fn)
}

type fakeProductRepo struct {
	store *memStore
}

func (r *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	r.store.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.store.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", sku)
}

func (r *fakeProductRepo) GetByName(_ context.Context, name string) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", name)
}

func (r *fakeProductRepo) List(_ context.Context, _ product.ListFilter) ([]*product.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *product.Product) error {
	r.store.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, productID id.ID) error {
	delete(r.store.products, productID)
	return nil
}

func (r *fakeProductRepo) Exists(_ context.Context, productID id.ID) (bool, error) {
	_, ok := r.store.products[productID]
	return ok, nil
}

func (r *fakeProductRepo) HasBatches(_ context.Context, productID id.ID) (bool, error) {
	for _, b := range r.store.batches {
		if b.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

type fakeBatchRepo struct {
	store *memStore
}

func (r *fakeBatchRepo) Create(_ context.Context, b *batch.Batch) error {
	cp := *b
	r.store.batches[b.ID] = &cp
	return nil
}

func (r *fakeBatchRepo) GetByID(_ context.Context, batchID id.ID) (*batch.Batch, error) {
	b, ok := r.store.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID)
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBatchRepo) List(_ context.Context, _ batch.ListFilter) ([]*batch.Batch, error) {
	return nil, nil
}

func (r *fakeBatchRepo) Delete(_ context.Context, batchID id.ID) error {
	delete(r.store.batches, batchID)
	return nil
}

func (r *fakeBatchRepo) ordered(productID *id.ID, onlyAvailable bool) []*batch.Batch {
	var out []*batch.Batch
	for _, b := range r.store.batches {
		if productID != nil && b.ProductID != *productID {
			continue
		}
		if onlyAvailable && !b.IsAvailable() {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.Before(out[j].PurchasedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *fakeBatchRepo) Available(_ context.Context, productID id.ID) ([]*batch.Batch, error) {
	return r.ordered(&productID, true), nil
}

func (r *fakeBatchRepo) AvailableForUpdate(_ context.Context, productID id.ID) ([]*batch.Batch, error) {
	return r.ordered(&productID, true), nil
}

func (r *fakeBatchRepo) LockByIDs(_ context.Context, batchIDs []id.ID) ([]*batch.Batch, error) {
	var out []*batch.Batch
	for _, batchID := range batchIDs {
		if b, ok := r.store.batches[batchID]; ok {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.Before(out[j].PurchasedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *fakeBatchRepo) TotalAvailable(_ context.Context, productID id.ID) (int64, error) {
	return batch.TotalQuantity(r.ordered(&productID, true)), nil
}

func (r *fakeBatchRepo) ApplyQuantityChanges(_ context.Context, changes []batch.QuantityChange) error {
	for _, ch := range changes {
		b, ok := r.store.batches[ch.BatchID]
		if !ok {
			return apperror.NewNotFound("batch", ch.BatchID)
		}
		next := b.Quantity + ch.Delta
		if next < 0 || next > b.InitialQuantity {
			return fmt.Errorf("quantity out of range for batch %s", ch.BatchID)
		}
		b.Quantity = next
	}
	return nil
}

func (r *fakeBatchRepo) SetObsolete(_ context.Context, batchID id.ID, obsolete bool) error {
	b, ok := r.store.batches[batchID]
	if !ok {
		return apperror.NewNotFound("batch", batchID)
	}
	if obsolete {
		now := time.Now().UTC()
		b.ObsoleteAt = &now
	} else {
		b.ObsoleteAt = nil
	}
	return nil
}

func (r *fakeBatchRepo) HasConsumptions(_ context.Context, batchID id.ID) (bool, error) {
	for _, cons := range r.store.consumptions {
		for _, c := range cons {
			if c.BatchID == batchID {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeSaleRepo struct {
	store *memStore
}

func (r *fakeSaleRepo) CreateSale(_ context.Context, s *Sale, lines []Line, consumptions []Consumption) error {
	cp := *s
	r.store.sales[s.ID] = &cp
	r.store.lines[s.ID] = append([]Line(nil), lines...)
	r.store.consumptions[s.ID] = append([]Consumption(nil), consumptions...)
	return nil
}

func (r *fakeSaleRepo) GetByID(_ context.Context, saleID id.ID) (*Detail, error) {
	s, ok := r.store.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return &Detail{
		Sale:         *s,
		Lines:        append([]Line(nil), r.store.lines[saleID]...),
		Consumptions: append([]Consumption(nil), r.store.consumptions[saleID]...),
	}, nil
}

func (r *fakeSaleRepo) GetForUpdate(_ context.Context, saleID id.ID) (*Sale, error) {
	s, ok := r.store.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSaleRepo) List(_ context.Context, _ ListFilter) ([]*Sale, error) {
	var out []*Sale
	for _, s := range r.store.sales {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeSaleRepo) ConsumptionsBySale(_ context.Context, saleID id.ID) ([]Consumption, error) {
	return append([]Consumption(nil), r.store.consumptions[saleID]...), nil
}

func (r *fakeSaleRepo) MarkReverted(_ context.Context, saleID id.ID, at time.Time) error {
	s, ok := r.store.sales[saleID]
	if !ok {
		return apperror.NewNotFound("sale", saleID)
	}
	if s.Reverted {
		return apperror.NewConcurrentModification("sale", saleID)
	}
	s.Reverted = true
	s.RevertedAt = &at
	return nil
}

func (r *fakeSaleRepo) DeleteSale(_ context.Context, saleID id.ID) error {
	delete(r.store.sales, saleID)
	delete(r.store.lines, saleID)
	delete(r.store.consumptions, saleID)
	return nil
}

type fixture struct {
	store *memStore
	svc   *Service
}

func newFixture() *fixture {
	store := newMemStore()
	return &fixture{
		store: store,
		svc: NewService(
			&fakeSaleRepo{store: store},
			&fakeBatchRepo{store: store},
			&fakeProductRepo{store: store},
			&fakeTx{store: store},
		),
	}
}

func (f *fixture) addProduct(listPrice string) *product.Product {
	p := product.NewProduct("widget", types.MustMoney(listPrice))
	f.store.products[p.ID] = p
	return p
}

func (f *fixture) addBatch(productID id.ID, qty int64, cost string, offset time.Duration) *batch.Batch {
	b := batch.NewBatch(productID, qty, types.MustMoney(cost),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(offset))
	f.store.batches[b.ID] = b
	return b
}

func (f *fixture) totalOnHand(productID id.ID) int64 {
	var total int64
	for _, b := range f.store.batches {
		if b.ProductID == productID {
			total += b.Quantity
		}
	}
	return total
}

// --- Tests ---

func TestSell_DrawsFIFOAcrossBatches(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	oldBatch := f.addBatch(p.ID, 5, "2.00", 0)
	newBatch := f.addBatch(p.ID, 3, "2.50", time.Hour)

	detail, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{{ProductID: p.ID, Quantity: 6}},
	})
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)
	require.Len(t, detail.Consumptions, 2)

	assert.EqualValues(t, 0, f.store.batches[oldBatch.ID].Quantity)
	assert.EqualValues(t, 2, f.store.batches[newBatch.ID].Quantity)

	// Revenue 6 * 5.00, cost 5*2.00 + 1*2.50
	assert.True(t, detail.Total().Equal(types.MustMoney("30.00")))
	assert.True(t, detail.Cost().Equal(types.MustMoney("12.50")))
	assert.True(t, detail.Profit().Equal(types.MustMoney("17.50")))
}

func TestSell_CapturesListPriceByDefault(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	f.addBatch(p.ID, 10, "2.00", 0)

	override := types.MustMoney("4.25")
	detail, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: p.ID, Quantity: 2, UnitPrice: &override},
		},
	})
	require.NoError(t, err)
	require.Len(t, detail.Lines, 2)

	assert.True(t, detail.Lines[0].UnitPrice.Equal(types.MustMoney("5.00")))
	assert.True(t, detail.Lines[1].UnitPrice.Equal(override))

	// Later list price changes must not rewrite the captured price.
	f.store.products[p.ID].ListPrice = types.MustMoney("9.99")
	loaded, err := f.svc.GetByID(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Lines[0].UnitPrice.Equal(types.MustMoney("5.00")))
}

func TestSell_AllOrNothing(t *testing.T) {
	f := newFixture()
	p1 := f.addProduct("5.00")
	p2 := f.addProduct("7.00")
	f.addBatch(p1.ID, 10, "2.00", 0)
	f.addBatch(p2.ID, 2, "3.00", 0)

	_, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{
			{ProductID: p1.ID, Quantity: 4},
			{ProductID: p2.ID, Quantity: 3},
		},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, 1, appErr.Details["lineIndex"])

	// Nothing moved, nothing persisted.
	assert.EqualValues(t, 10, f.totalOnHand(p1.ID))
	assert.EqualValues(t, 2, f.totalOnHand(p2.ID))
	assert.Empty(t, f.store.sales)
}

func TestSell_RejectsInvalidQuantityWithLineIndex(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	f.addBatch(p.ID, 10, "2.00", 0)

	_, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: p.ID, Quantity: 0},
		},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidQuantity, appErr.Code)
	assert.Equal(t, 1, appErr.Details["lineIndex"])
	assert.EqualValues(t, 10, f.totalOnHand(p.ID))
}

func TestSell_RepeatedProductSharesLedger(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	f.addBatch(p.ID, 5, "2.00", 0)

	// Two lines totalling 6 against 5 on hand must fail even though
	// each line alone would fit.
	_, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: 3},
			{ProductID: p.ID, Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.EqualValues(t, 5, f.totalOnHand(p.ID))

	// Exactly the total fits.
	_, err = f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: 3},
			{ProductID: p.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, f.totalOnHand(p.ID))
}

func TestSell_UnknownProduct(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{{ProductID: id.New(), Quantity: 1}},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Equal(t, 0, appErr.Details["lineIndex"])
}

func TestRevert_RestoresEveryUnitToItsBatch(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	b1 := f.addBatch(p.ID, 5, "2.00", 0)
	b2 := f.addBatch(p.ID, 3, "2.50", time.Hour)

	detail, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{{ProductID: p.ID, Quantity: 6}},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, f.totalOnHand(p.ID))

	require.NoError(t, f.svc.Revert(context.Background(), detail.ID))

	assert.EqualValues(t, 5, f.store.batches[b1.ID].Quantity)
	assert.EqualValues(t, 3, f.store.batches[b2.ID].Quantity)

	loaded, err := f.svc.GetByID(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Reverted)
	require.NotNil(t, loaded.RevertedAt)

	// Consumption history survives the reversal.
	assert.Len(t, loaded.Consumptions, 2)
}

func TestRevert_Idempotent(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	f.addBatch(p.ID, 5, "2.00", 0)

	detail, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Revert(context.Background(), detail.ID))
	require.EqualValues(t, 5, f.totalOnHand(p.ID))

	// Second revert must not restore again.
	require.NoError(t, f.svc.Revert(context.Background(), detail.ID))
	assert.EqualValues(t, 5, f.totalOnHand(p.ID))
}

func TestRevert_AggregatesPerBatch(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	b := f.addBatch(p.ID, 10, "2.00", 0)

	// Two lines draw from the same batch; the restore must be the
	// aggregated sum, applied once.
	detail, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: 4},
			{ProductID: p.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, f.store.batches[b.ID].Quantity)

	require.NoError(t, f.svc.Revert(context.Background(), detail.ID))
	assert.EqualValues(t, 10, f.store.batches[b.ID].Quantity)
}

func TestRevert_CorruptLedger(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	b := f.addBatch(p.ID, 5, "2.00", 0)

	detail, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	// Simulate external tampering: the batch already holds more than
	// the reversal assumes.
	f.store.batches[b.ID].Quantity = 4

	err = f.svc.Revert(context.Background(), detail.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCorruptLedger, appErr.Code)

	// Aborted: no partial restore, sale still active.
	assert.EqualValues(t, 4, f.store.batches[b.ID].Quantity)
	loaded, err := f.svc.GetByID(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Reverted)
}

func TestDelete_RevertsActiveSaleFirst(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	f.addBatch(p.ID, 5, "2.00", 0)

	detail, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, f.totalOnHand(p.ID))

	require.NoError(t, f.svc.Delete(context.Background(), detail.ID))

	assert.EqualValues(t, 5, f.totalOnHand(p.ID))
	_, err = f.svc.GetByID(context.Background(), detail.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete_RevertedSale(t *testing.T) {
	f := newFixture()
	p := f.addProduct("5.00")
	f.addBatch(p.ID, 5, "2.00", 0)

	detail, err := f.svc.Sell(context.Background(), SellInput{
		Lines: []LineInput{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Revert(context.Background(), detail.ID))

	require.NoError(t, f.svc.Delete(context.Background(), detail.ID))
	assert.EqualValues(t, 5, f.totalOnHand(p.ID))
}

func TestSell_EmptyLines(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Sell(context.Background(), SellInput{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
