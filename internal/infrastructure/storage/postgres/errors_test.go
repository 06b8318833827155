package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventapos/internal/core/apperror"
)

func TestMapError_NoRows(t *testing.T) {
	err := MapError(fmt.Errorf("scan: %w", pgx.ErrNoRows), "product")
	assert.True(t, apperror.IsNotFound(err))
}

func TestMapError_SerializationCodes(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := MapError(&pgconn.PgError{Code: code}, "sale")
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok, "code=%s", code)
		assert.Equal(t, apperror.CodeSerialization, appErr.Code, "code=%s", code)
		assert.True(t, apperror.IsTransient(err))
	}
}

func TestMapError_UniqueViolation(t *testing.T) {
	err := MapError(&pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key"}, "product")
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestMapError_ForeignKeyViolation(t *testing.T) {
	err := MapError(&pgconn.PgError{Code: "23503", ConstraintName: "batches_product_id_fkey"}, "product")
	assert.True(t, apperror.HasCode(err, apperror.CodeReferential))
}

func TestMapError_CheckViolation(t *testing.T) {
	err := MapError(&pgconn.PgError{Code: "23514", ConstraintName: "batches_quantity_check"}, "batch")
	assert.True(t, apperror.HasCode(err, apperror.CodeCorruptLedger))
}

func TestMapError_PassesAppErrorsThrough(t *testing.T) {
	orig := apperror.NewInsufficientStock("p1", 5, 3)
	assert.Same(t, orig, MapError(orig, "sale"))
}

func TestMapError_WrapsUnknown(t *testing.T) {
	err := MapError(errors.New("connection reset"), "sale")
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))
	assert.False(t, apperror.IsTransient(err))
}

func TestIsRetryablePgError(t *testing.T) {
	assert.True(t, isRetryablePgError(fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40001"})))
	assert.False(t, isRetryablePgError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isRetryablePgError(errors.New("plain")))
}
