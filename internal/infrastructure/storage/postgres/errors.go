package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ventapos/internal/core/apperror"
)

// SQLSTATE codes this layer cares about.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
	sqlstateLockNotAvailable     = "55P03"
	sqlstateUniqueViolation      = "23505"
	sqlstateForeignKeyViolation  = "23503"
	sqlstateCheckViolation       = "23514"
)

// isRetryablePgError reports whether the error chain holds a SQLSTATE
// that a fresh transaction could avoid.
func isRetryablePgError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case sqlstateSerializationFailure, sqlstateDeadlockDetected, sqlstateLockNotAvailable:
		return true
	}
	return false
}

func newSerializationError(err error) *apperror.AppError {
	return apperror.NewSerialization(err)
}

// MapError translates low-level database errors into AppErrors. The
// entity name feeds not-found and conflict messages. Errors that are
// already AppErrors pass through unchanged.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity, nil)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateSerializationFailure, sqlstateDeadlockDetected, sqlstateLockNotAvailable:
			return apperror.NewSerialization(err)
		case sqlstateUniqueViolation:
			return apperror.NewDuplicate(entity, pgErr.ConstraintName, "").WithCause(err)
		case sqlstateForeignKeyViolation:
			return apperror.NewReferential(entity, nil, pgErr.ConstraintName).WithCause(err)
		case sqlstateCheckViolation:
			// The ledger check constraints are the last line of
			// defense behind the service-level bounds.
			return apperror.NewCorruptLedger("", 0, 0, 0).WithCause(err).
				WithDetail("constraint", pgErr.ConstraintName)
		}
	}

	return &apperror.AppError{
		Code:       apperror.CodeDatabase,
		Message:    "Database error",
		HTTPStatus: 500,
		Err:        err,
	}
}
