package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/types"
)

func makeBatch(t *testing.T, qty int64, cost string, offset time.Duration) *Batch {
	t.Helper()
	b := NewBatch(id.New(), qty, types.MustMoney(cost), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(offset))
	return b
}

func TestAllocate_SpansBatchesFIFO(t *testing.T) {
	productID := id.New()
	batches := []*Batch{
		makeBatch(t, 5, "2.00", 0),
		makeBatch(t, 3, "2.50", time.Hour),
		makeBatch(t, 8, "3.00", 2*time.Hour),
	}

	draws, err := Allocate(productID, batches, 6)
	require.NoError(t, err)
	require.Len(t, draws, 2)

	assert.Equal(t, batches[0].ID, draws[0].BatchID)
	assert.EqualValues(t, 5, draws[0].Quantity)
	assert.True(t, draws[0].UnitCost.Equal(types.MustMoney("2.00")))

	assert.Equal(t, batches[1].ID, draws[1].BatchID)
	assert.EqualValues(t, 1, draws[1].Quantity)
	assert.True(t, draws[1].UnitCost.Equal(types.MustMoney("2.50")))
}

func TestAllocate_ExactTotal(t *testing.T) {
	productID := id.New()
	batches := []*Batch{
		makeBatch(t, 5, "2.00", 0),
		makeBatch(t, 3, "2.50", time.Hour),
	}

	draws, err := Allocate(productID, batches, 8)
	require.NoError(t, err)
	require.Len(t, draws, 2)

	var total int64
	for _, d := range draws {
		total += d.Quantity
	}
	assert.EqualValues(t, 8, total)
}

func TestAllocate_OneUnitOverTotal(t *testing.T) {
	productID := id.New()
	batches := []*Batch{
		makeBatch(t, 5, "2.00", 0),
		makeBatch(t, 3, "2.50", time.Hour),
	}

	draws, err := Allocate(productID, batches, 9)
	require.Error(t, err)
	assert.Nil(t, draws)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, int64(9), appErr.Details["requested"])
	assert.EqualValues(t, int64(8), appErr.Details["available"])
	assert.EqualValues(t, int64(1), appErr.Details["shortfall"])
}

func TestAllocate_RejectsNonPositiveQuantity(t *testing.T) {
	productID := id.New()
	batches := []*Batch{makeBatch(t, 5, "2.00", 0)}

	for _, qty := range []int64{0, -1} {
		draws, err := Allocate(productID, batches, qty)
		assert.Nil(t, draws)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity), "qty=%d", qty)
	}
}

func TestAllocate_SkipsObsoleteAndDepleted(t *testing.T) {
	productID := id.New()
	obsoleteAt := time.Now().UTC()

	depleted := makeBatch(t, 5, "2.00", 0)
	depleted.Quantity = 0

	obsolete := makeBatch(t, 5, "2.00", time.Hour)
	obsolete.ObsoleteAt = &obsoleteAt

	live := makeBatch(t, 4, "3.00", 2*time.Hour)

	draws, err := Allocate(productID, []*Batch{depleted, obsolete, live}, 4)
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, live.ID, draws[0].BatchID)
	assert.EqualValues(t, 4, draws[0].Quantity)
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	productID := id.New()
	batches := []*Batch{
		makeBatch(t, 5, "2.00", 0),
		makeBatch(t, 3, "2.50", time.Hour),
	}

	_, err := Allocate(productID, batches, 6)
	require.NoError(t, err)
	assert.EqualValues(t, 5, batches[0].Quantity)
	assert.EqualValues(t, 3, batches[1].Quantity)

	_, err = Allocate(productID, batches, 100)
	require.Error(t, err)
	assert.EqualValues(t, 5, batches[0].Quantity)
	assert.EqualValues(t, 3, batches[1].Quantity)
}

func TestTotalQuantityAndStockValue(t *testing.T) {
	obsoleteAt := time.Now().UTC()

	a := makeBatch(t, 5, "2.00", 0)
	b := makeBatch(t, 3, "2.50", time.Hour)
	c := makeBatch(t, 7, "9.99", 2*time.Hour)
	c.ObsoleteAt = &obsoleteAt

	batches := []*Batch{a, b, c}
	assert.EqualValues(t, 8, TotalQuantity(batches))
	// 5*2.00 + 3*2.50 = 17.50; the obsolete batch is excluded
	assert.True(t, StockValue(batches).Equal(types.MustMoney("17.50")))
}
