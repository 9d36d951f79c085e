// internal/repository/account_repo.go
package repository

import (
	"context"

	"rebels-bot/internal/domain"
)

// AccountRepository defines the interface for account data operations.
type AccountRepository interface {
	// GetAccount retrieves an account, returning util.ErrNotFound when it does not exist.
	GetAccount(ctx context.Context, q DBExecutor, userID string) (*domain.Account, error)
	// GetOrCreateAccount retrieves an account, inserting a zero-balance one first if absent.
	GetOrCreateAccount(ctx context.Context, q DBExecutor, userID string) (*domain.Account, error)
	// IncrementBalance adds delta to the balance in a single statement, creating the account if absent.
	// A delta that would overflow the balance is refused with util.ErrInvalidAmount.
	IncrementBalance(ctx context.Context, q DBExecutor, userID string, delta int64) (*domain.Account, error)
	// DebitIfSufficient subtracts amount only if the balance covers it,
	// returning util.ErrInsufficientFunds otherwise.
	DebitIfSufficient(ctx context.Context, q DBExecutor, userID string, amount int64) error
	// TopByBalance returns up to limit accounts, highest balance first, ties by user ID.
	TopByBalance(ctx context.Context, q DBExecutor, limit int) ([]domain.Account, error)
	// SetDisplayName records the name last seen for an existing account. Unknown users are ignored.
	SetDisplayName(ctx context.Context, q DBExecutor, userID, name string) error
	// LockAccounts takes row locks on the given accounts in user ID order, where the database supports it.
	LockAccounts(ctx context.Context, q DBExecutor, userIDs ...string) error
	// CountAccounts returns the number of stored accounts.
	CountAccounts(ctx context.Context, q DBExecutor) (int64, error)
}
