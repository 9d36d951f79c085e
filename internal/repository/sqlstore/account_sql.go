// internal/repository/sqlstore/account_sql.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"rebels-bot/internal/domain"
	"rebels-bot/internal/repository"
	"rebels-bot/internal/util"
	"rebels-bot/pkg/db"
)

// The queries stick to the SQL subset shared by PostgreSQL and SQLite
// (upsert, RETURNING) and use '?' placeholders rebound per driver.
const (
	accountColumns = `user_id, display_name, balance, created_at, updated_at`

	selectAccountQuery = `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?`

	insertAccountQuery = `INSERT INTO accounts (user_id, balance, created_at, updated_at)
              VALUES (?, 0, ?, ?) ON CONFLICT (user_id) DO NOTHING`

	// The WHERE guard skips an update that would leave the int64 range;
	// SQLite would otherwise store the sum as REAL.
	incrementBalanceQuery = `INSERT INTO accounts (user_id, balance, created_at, updated_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT (user_id) DO UPDATE
              SET balance = accounts.balance + excluded.balance, updated_at = excluded.updated_at
              WHERE CASE WHEN excluded.balance >= 0
                         THEN accounts.balance <= ? - excluded.balance
                         ELSE accounts.balance >= ? - excluded.balance END
              RETURNING ` + accountColumns

	debitQuery = `UPDATE accounts SET balance = balance - ?, updated_at = ?
              WHERE user_id = ? AND balance >= ?`

	setDisplayNameQuery = `UPDATE accounts SET display_name = ? WHERE user_id = ? AND display_name <> ?`

	lockAccountsQuery = `SELECT user_id FROM accounts WHERE user_id IN (?) ORDER BY user_id FOR UPDATE`

	topByBalanceQuery = `SELECT ` + accountColumns + ` FROM accounts
              ORDER BY balance DESC, user_id ASC
              LIMIT ?`

	countAccountsQuery = `SELECT COUNT(*) FROM accounts`
)

// accountRow is the stored shape of an account. Timestamps are unix
// milliseconds so both drivers scan them the same way.
type accountRow struct {
	UserID      string `db:"user_id"`
	DisplayName string `db:"display_name"`
	Balance     int64  `db:"balance"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r accountRow) toDomain() *domain.Account {
	return &domain.Account{
		UserID:      r.UserID,
		DisplayName: r.DisplayName,
		Balance:     r.Balance,
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// AccountRepository implements repository.AccountRepository over any sqlx-backed database.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() repository.AccountRepository {
	return &AccountRepository{}
}

// GetAccount retrieves an account by user ID using the provided DBExecutor.
func (r *AccountRepository) GetAccount(ctx context.Context, q repository.DBExecutor, userID string) (*domain.Account, error) {
	var row accountRow
	err := q.GetContext(ctx, &row, q.Rebind(selectAccountQuery), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", userID, util.StorageError(err))
	}
	return row.toDomain(), nil
}

// GetOrCreateAccount inserts a zero-balance account if none exists, then reads it back.
func (r *AccountRepository) GetOrCreateAccount(ctx context.Context, q repository.DBExecutor, userID string) (*domain.Account, error) {
	account := domain.NewAccount(userID)
	if _, err := q.ExecContext(ctx, q.Rebind(insertAccountQuery), account.UserID, toMillis(account.CreatedAt), toMillis(account.UpdatedAt)); err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", userID, util.StorageError(err))
	}
	return r.GetAccount(ctx, q, userID)
}

// IncrementBalance applies delta with a single upsert so concurrent calls never lose updates.
// No row comes back when the overflow guard skipped the update.
func (r *AccountRepository) IncrementBalance(ctx context.Context, q repository.DBExecutor, userID string, delta int64) (*domain.Account, error) {
	now := toMillis(time.Now())
	var row accountRow
	err := q.GetContext(ctx, &row, q.Rebind(incrementBalanceQuery), userID, delta, now, now, int64(math.MaxInt64), int64(math.MinInt64))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("balance of account %s cannot absorb %d: %w", userID, delta, util.ErrInvalidAmount)
		}
		return nil, fmt.Errorf("failed to increment balance for account %s: %w", userID, util.StorageError(err))
	}
	return row.toDomain(), nil
}

// DebitIfSufficient subtracts amount when the stored balance covers it.
func (r *AccountRepository) DebitIfSufficient(ctx context.Context, q repository.DBExecutor, userID string, amount int64) error {
	result, err := q.ExecContext(ctx, q.Rebind(debitQuery), amount, toMillis(time.Now()), userID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit account %s: %w", userID, util.StorageError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after debiting account %s: %w", userID, util.StorageError(err))
	}
	if rowsAffected == 0 {
		return util.ErrInsufficientFunds
	}
	return nil
}

// SetDisplayName stores name for an existing account, skipping the write when it is unchanged.
func (r *AccountRepository) SetDisplayName(ctx context.Context, q repository.DBExecutor, userID, name string) error {
	if _, err := q.ExecContext(ctx, q.Rebind(setDisplayNameQuery), name, userID, name); err != nil {
		return fmt.Errorf("failed to set display name for account %s: %w", userID, util.StorageError(err))
	}
	return nil
}

// LockAccounts locks the existing rows among userIDs, in user ID order, until
// the surrounding transaction ends. SQLite has no row locks; its single
// connection already serializes transactions, so this is a no-op there.
func (r *AccountRepository) LockAccounts(ctx context.Context, q repository.DBExecutor, userIDs ...string) error {
	if len(userIDs) == 0 || q.DriverName() == db.DriverSQLite {
		return nil
	}
	query, args, err := sqlx.In(lockAccountsQuery, userIDs)
	if err != nil {
		return fmt.Errorf("failed to build lock query: %w", err)
	}
	var locked []string
	if err := q.SelectContext(ctx, &locked, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to lock accounts %v: %w", userIDs, util.StorageError(err))
	}
	return nil
}

// TopByBalance retrieves the richest accounts.
func (r *AccountRepository) TopByBalance(ctx context.Context, q repository.DBExecutor, limit int) ([]domain.Account, error) {
	rows := []accountRow{}
	if err := q.SelectContext(ctx, &rows, q.Rebind(topByBalanceQuery), limit); err != nil {
		return nil, fmt.Errorf("failed to fetch top %d accounts: %w", limit, util.StorageError(err))
	}
	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, *row.toDomain())
	}
	return accounts, nil
}

// CountAccounts returns the total number of accounts.
func (r *AccountRepository) CountAccounts(ctx context.Context, q repository.DBExecutor) (int64, error) {
	var total int64
	if err := q.GetContext(ctx, &total, q.Rebind(countAccountsQuery)); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", util.StorageError(err))
	}
	return total, nil
}
