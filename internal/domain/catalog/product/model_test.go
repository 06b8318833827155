package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/types"
)

func TestProductValidate(t *testing.T) {
	p := NewProduct("Coffee Beans 1kg", types.MustMoney("18.50"))
	require.NoError(t, p.Validate(context.Background()))

	t.Run("empty name", func(t *testing.T) {
		bad := NewProduct("   ", types.MustMoney("1.00"))
		err := bad.Validate(context.Background())
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("negative price", func(t *testing.T) {
		bad := NewProduct("Tea", types.MustMoney("-0.01"))
		err := bad.Validate(context.Background())
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("negative target", func(t *testing.T) {
		bad := NewProduct("Tea", types.MustMoney("1.00"))
		bad.InventoryTarget = -1
		err := bad.Validate(context.Background())
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})
}

func TestIsInventoryLow(t *testing.T) {
	p := NewProduct("Coffee Beans 1kg", types.MustMoney("18.50"))

	// Zero target disables the check entirely.
	assert.False(t, p.IsInventoryLow(0))

	p.InventoryTarget = 10
	assert.True(t, p.IsInventoryLow(9))
	assert.False(t, p.IsInventoryLow(10))
	assert.False(t, p.IsInventoryLow(11))
}

func TestRetailValue(t *testing.T) {
	p := NewProduct("Coffee Beans 1kg", types.MustMoney("18.50"))

	assert.True(t, p.RetailValue(0).IsZero())
	assert.True(t, types.MustMoney("55.50").Equal(p.RetailValue(3)))
}
