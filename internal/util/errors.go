// internal/util/errors.go
package util

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Common application-specific errors.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input provided")
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoData            = errors.New("no data available")

	// Infrastructure failures. Safe to retry the whole command.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageTimeout     = errors.New("storage timeout")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsStorageError reports whether err is an infrastructure failure.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrStorageTimeout)
}

// StorageError classifies an error coming out of the database layer.
// Domain errors pass through untouched, sql.ErrNoRows becomes ErrNotFound,
// deadlines become ErrStorageTimeout and everything else ErrStorageUnavailable.
func StorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrSelfTransfer),
		IsStorageError(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrStorageTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
}
