// internal/service/account_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rebels-bot/internal/domain"
	"rebels-bot/internal/repository"
	"rebels-bot/internal/util"
	"rebels-bot/pkg/db"
)

// DefaultTimeout bounds every store operation when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// AccountService defines the account store operations the bot relies on.
type AccountService interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Account, error)
	GetAccount(ctx context.Context, userID string) (*domain.Account, error)
	IncrementBalance(ctx context.Context, userID string, delta int64) (*domain.Account, error)
	TopByBalance(ctx context.Context, limit int) ([]domain.Account, error)
	CountAccounts(ctx context.Context) (int64, error)
	RememberName(ctx context.Context, userID, displayName string) error
	Transfer(ctx context.Context, senderID, receiverID string, amount int64) (*domain.Transfer, error)
}

// accountService implements the AccountService interface.
type accountService struct {
	dbBeginner  db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor  repository.DBExecutor // For single-statement operations (e.g., *sqlx.DB)
	accountRepo repository.AccountRepository
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
	timeout     time.Duration
}

// NewAccountService creates a new instance of AccountService.
// A non-positive timeout falls back to DefaultTimeout.
func NewAccountService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	timeout time.Duration,
) AccountService {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &accountService{
		dbBeginner:  dbBeginner,
		dbExecutor:  dbExecutor,
		accountRepo: accountRepo,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
		timeout:     timeout,
	}
}

// storageErr reports a deadline hit by the bounded context as a timeout even
// when the driver surfaced it as a generic failure.
func storageErr(ctx context.Context, err error) error {
	err = util.StorageError(err)
	if errors.Is(err, util.ErrStorageUnavailable) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", util.ErrStorageTimeout, err)
	}
	return err
}

// GetOrCreate returns the caller's account, creating it with a zero balance if needed.
func (s *accountService) GetOrCreate(ctx context.Context, userID string) (*domain.Account, error) {
	if userID == "" {
		return nil, util.ErrInvalidInput
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.accountRepo.GetOrCreateAccount(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create: %w", storageErr(ctx, err))
	}
	return account, nil
}

// GetAccount returns an existing account without creating it.
func (s *accountService) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.accountRepo.GetAccount(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", userID, storageErr(ctx, err))
	}
	return account, nil
}

// IncrementBalance applies a signed delta atomically. It is not idempotent:
// each call is one delta application.
func (s *accountService) IncrementBalance(ctx context.Context, userID string, delta int64) (*domain.Account, error) {
	if userID == "" {
		return nil, util.ErrInvalidInput
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.accountRepo.IncrementBalance(ctx, s.dbExecutor, userID, delta)
	if err != nil {
		return nil, fmt.Errorf("increment balance: %w", storageErr(ctx, err))
	}
	return account, nil
}

// TopByBalance returns up to limit accounts ordered by balance descending.
func (s *accountService) TopByBalance(ctx context.Context, limit int) ([]domain.Account, error) {
	if limit <= 0 {
		return nil, util.ErrInvalidInput
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	accounts, err := s.accountRepo.TopByBalance(ctx, s.dbExecutor, limit)
	if err != nil {
		return nil, fmt.Errorf("top by balance: %w", storageErr(ctx, err))
	}
	return accounts, nil
}

// CountAccounts returns the number of stored accounts.
func (s *accountService) CountAccounts(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	total, err := s.accountRepo.CountAccounts(ctx, s.dbExecutor)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", storageErr(ctx, err))
	}
	return total, nil
}

// RememberName stores the display name the platform last showed for an
// existing account, so listings can show it later.
func (s *accountService) RememberName(ctx context.Context, userID, displayName string) error {
	if userID == "" || displayName == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.accountRepo.SetDisplayName(ctx, s.dbExecutor, userID, displayName); err != nil {
		return fmt.Errorf("remember name: %w", storageErr(ctx, err))
	}
	return nil
}

// Transfer moves amount from sender to receiver inside one database
// transaction: either the debit and the credit both commit or neither does.
// A sender without an account is treated as having a zero balance and is not created.
func (s *accountService) Transfer(ctx context.Context, senderID, receiverID string, amount int64) (*domain.Transfer, error) {
	if amount <= 0 {
		return nil, util.ErrInvalidAmount
	}
	if senderID == "" || receiverID == "" {
		return nil, util.ErrInvalidInput
	}
	if senderID == receiverID {
		return nil, util.ErrSelfTransfer
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to begin transaction: %w", storageErr(ctx, err))
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("transfer: transaction controller does not implement DBExecutor")
	}

	// Both rows are locked in user ID order, so opposite transfers between
	// the same pair wait for each other instead of deadlocking.
	first, second := senderID, receiverID
	if second < first {
		first, second = second, first
	}
	if err := s.accountRepo.LockAccounts(ctx, txExecutor, first, second); err != nil {
		return nil, fmt.Errorf("transfer: failed to lock accounts: %w", storageErr(ctx, err))
	}

	sender, err := s.accountRepo.GetAccount(ctx, txExecutor, senderID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("transfer: failed to get sender %s: %w", senderID, storageErr(ctx, err))
	}

	if _, err := s.accountRepo.GetOrCreateAccount(ctx, txExecutor, receiverID); err != nil {
		return nil, fmt.Errorf("transfer: failed to get receiver %s: %w", receiverID, storageErr(ctx, err))
	}

	if sender.Balance < amount {
		return nil, util.ErrInsufficientFunds
	}

	// The conditional debit re-checks the balance at write time, so a
	// concurrent transfer that drained the sender cannot push it negative.
	if err := s.accountRepo.DebitIfSufficient(ctx, txExecutor, senderID, amount); err != nil {
		if errors.Is(err, util.ErrInsufficientFunds) {
			return nil, err
		}
		return nil, fmt.Errorf("transfer: failed to debit sender %s: %w", senderID, storageErr(ctx, err))
	}

	updatedReceiver, err := s.accountRepo.IncrementBalance(ctx, txExecutor, receiverID, amount)
	if err != nil {
		if errors.Is(err, util.ErrInvalidAmount) {
			return nil, err
		}
		return nil, fmt.Errorf("transfer: failed to credit receiver %s: %w", receiverID, storageErr(ctx, err))
	}

	updatedSender, err := s.accountRepo.GetAccount(ctx, txExecutor, senderID)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to re-fetch sender %s: %w", senderID, storageErr(ctx, err))
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("transfer: failed to commit transaction: %w", storageErr(ctx, err))
	}

	return &domain.Transfer{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		Amount:          amount,
		SenderBalance:   updatedSender.Balance,
		ReceiverBalance: updatedReceiver.Balance,
	}, nil
}
