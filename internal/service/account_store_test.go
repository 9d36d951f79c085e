// internal/service/account_store_test.go
package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rebels-bot/internal/domain"
	"rebels-bot/internal/repository"
	"rebels-bot/internal/repository/sqlstore"
	"rebels-bot/internal/service"
	"rebels-bot/internal/testutil"
	"rebels-bot/internal/util"
	"rebels-bot/pkg/db"
)

func newStoreService(t *testing.T, repo repository.AccountRepository) (service.AccountService, *sqlx.DB) {
	t.Helper()
	database := testutil.NewSQLiteDB(t)
	if repo == nil {
		repo = sqlstore.NewAccountRepository()
	}
	return service.NewAccountService(database, database, repo, db.BeginTx, db.CommitTx, db.RollbackTx, 5*time.Second), database
}

func balanceOf(t *testing.T, svc service.AccountService, userID string) int64 {
	t.Helper()
	account, err := svc.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	return account.Balance
}

func totalBalance(t *testing.T, database *sqlx.DB) int64 {
	t.Helper()
	var total int64
	require.NoError(t, database.Get(&total, `SELECT COALESCE(SUM(balance), 0) FROM accounts`))
	return total
}

func TestGetOrCreateIsLazyAndIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	_, err := svc.GetAccount(ctx, "newcomer")
	assert.ErrorIs(t, err, util.ErrNotFound)

	first, err := svc.GetOrCreate(ctx, "newcomer")
	require.NoError(t, err)
	assert.Zero(t, first.Balance)

	second, err := svc.GetOrCreate(ctx, "newcomer")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)

	total, err := svc.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestTransferScenario(t *testing.T) {
	ctx := context.Background()
	svc, database := newStoreService(t, nil)

	_, err := svc.IncrementBalance(ctx, "A", 100)
	require.NoError(t, err)

	res, err := svc.Transfer(ctx, "A", "B", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(70), res.SenderBalance)
	assert.Equal(t, int64(30), res.ReceiverBalance)

	_, err = svc.Transfer(ctx, "B", "A", 31)
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)
	assert.Equal(t, int64(70), balanceOf(t, svc, "A"))
	assert.Equal(t, int64(30), balanceOf(t, svc, "B"))

	_, err = svc.Transfer(ctx, "A", "A", 5)
	assert.ErrorIs(t, err, util.ErrSelfTransfer)
	assert.Equal(t, int64(70), balanceOf(t, svc, "A"))

	_, err = svc.IncrementBalance(ctx, "C", 100)
	require.NoError(t, err)

	top, err := svc.TopByBalance(ctx, 10)
	require.NoError(t, err)
	ranked := domain.Rank(top)
	require.Len(t, ranked, 3)
	assert.Equal(t, "C", ranked[0].UserID)
	assert.Equal(t, "A", ranked[1].UserID)
	assert.Equal(t, "B", ranked[2].UserID)
	assert.Equal(t, 3, ranked[2].Rank)

	assert.Equal(t, int64(200), totalBalance(t, database))
}

func TestTransferInsufficientDoesNotCreateReceiver(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	_, err := svc.IncrementBalance(ctx, "poor", 5)
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, "poor", "stranger", 10)
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)

	_, err = svc.GetAccount(ctx, "stranger")
	assert.ErrorIs(t, err, util.ErrNotFound, "failed transfer must roll back the receiver insert")
	assert.Equal(t, int64(5), balanceOf(t, svc, "poor"))
}

func TestTransferFromUnknownSender(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	_, err := svc.Transfer(ctx, "ghost", "someone", 1)
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)

	total, err := svc.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, total, "neither side is created")
}

func TestTransferDrainsExactBalance(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	_, err := svc.IncrementBalance(ctx, "A", 25)
	require.NoError(t, err)

	res, err := svc.Transfer(ctx, "A", "B", 25)
	require.NoError(t, err)
	assert.Zero(t, res.SenderBalance)
	assert.Equal(t, int64(25), res.ReceiverBalance)
}

// failingCredit fails the credit leg of a transfer for one receiver.
type failingCredit struct {
	repository.AccountRepository
	receiver string
}

func (f failingCredit) IncrementBalance(ctx context.Context, q repository.DBExecutor, userID string, delta int64) (*domain.Account, error) {
	if userID == f.receiver {
		return nil, util.StorageError(errors.New("simulated write failure"))
	}
	return f.AccountRepository.IncrementBalance(ctx, q, userID, delta)
}

func TestTransferIsAtomic(t *testing.T) {
	ctx := context.Background()
	svc, database := newStoreService(t, failingCredit{
		AccountRepository: sqlstore.NewAccountRepository(),
		receiver:          "B",
	})

	_, err := svc.IncrementBalance(ctx, "A", 100)
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, "A", "B", 40)
	require.Error(t, err)
	assert.True(t, util.IsStorageError(err))

	assert.Equal(t, int64(100), balanceOf(t, svc, "A"), "debit must be rolled back")
	_, err = svc.GetAccount(ctx, "B")
	assert.ErrorIs(t, err, util.ErrNotFound)
	assert.Equal(t, int64(100), totalBalance(t, database))
}

func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	svc, database := newStoreService(t, nil)

	const (
		funds    = 10
		attempts = 25
	)
	_, err := svc.IncrementBalance(ctx, "A", funds)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Transfer(ctx, "A", fmt.Sprintf("r%d", i%3), 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, util.ErrInsufficientFunds):
				failures = append(failures, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, failures)
	assert.Equal(t, funds, succeeded)
	assert.Zero(t, balanceOf(t, svc, "A"))
	assert.Equal(t, int64(funds), totalBalance(t, database))
}

func TestConcurrentTransfersConserveTotal(t *testing.T) {
	ctx := context.Background()
	svc, database := newStoreService(t, nil)

	users := []string{"A", "B", "C"}
	for _, user := range users {
		_, err := svc.IncrementBalance(ctx, user, 50)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := users[i%3], users[(i+1)%3]
			_, err := svc.Transfer(ctx, from, to, int64(i%7+1))
			if err != nil && !errors.Is(err, util.ErrInsufficientFunds) {
				t.Errorf("transfer %s -> %s: %v", from, to, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(150), totalBalance(t, database))
	for _, user := range users {
		assert.GreaterOrEqual(t, balanceOf(t, svc, user), int64(0))
	}
}

func TestConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IncrementBalance(ctx, "shared", 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), balanceOf(t, svc, "shared"))
}

func TestLeaderboardLimit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	empty, err := svc.TopByBalance(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := 1; i <= 15; i++ {
		_, err := svc.IncrementBalance(ctx, fmt.Sprintf("u%02d", i), int64(i*10))
		require.NoError(t, err)
	}

	top, err := svc.TopByBalance(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 10)
	assert.Equal(t, "u15", top[0].UserID)
	assert.Equal(t, "u06", top[9].UserID)
}

func TestFirstTransferScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	u, err := svc.GetOrCreate(ctx, "u")
	require.NoError(t, err)
	require.Zero(t, u.Balance)

	_, err = svc.Transfer(ctx, "u", "v", 10)
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)

	_, err = svc.IncrementBalance(ctx, "u", 50)
	require.NoError(t, err)

	res, err := svc.Transfer(ctx, "u", "v", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(40), res.SenderBalance)
	assert.Equal(t, int64(10), res.ReceiverBalance)
	assert.Equal(t, int64(40), balanceOf(t, svc, "u"))
	assert.Equal(t, int64(10), balanceOf(t, svc, "v"))
}

func TestConcurrentTransfersCreditReceiverExactly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	const (
		transfers = 20
		amount    = 3
	)
	_, err := svc.IncrementBalance(ctx, "u", transfers*amount)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < transfers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(ctx, "u", "v", amount)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(transfers*amount), balanceOf(t, svc, "v"))
	assert.Zero(t, balanceOf(t, svc, "u"))
}

func TestIncrementOverflowKeepsStoreReadable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	_, err := svc.IncrementBalance(ctx, "whale", math.MaxInt64)
	require.NoError(t, err)

	_, err = svc.IncrementBalance(ctx, "whale", 1)
	assert.ErrorIs(t, err, util.ErrInvalidAmount)
	assert.False(t, util.IsStorageError(err))

	assert.Equal(t, int64(math.MaxInt64), balanceOf(t, svc, "whale"))
	top, err := svc.TopByBalance(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	_, err = svc.GetOrCreate(ctx, "whale")
	assert.NoError(t, err)
}

func TestTransferOverflowRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, database := newStoreService(t, nil)

	_, err := svc.IncrementBalance(ctx, "whale", math.MaxInt64)
	require.NoError(t, err)
	_, err = svc.IncrementBalance(ctx, "A", 10)
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, "A", "whale", 5)
	assert.ErrorIs(t, err, util.ErrInvalidAmount)

	assert.Equal(t, int64(10), balanceOf(t, svc, "A"))
	assert.Equal(t, int64(math.MaxInt64), balanceOf(t, svc, "whale"))
	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM accounts WHERE typeof(balance) <> 'integer'`))
	assert.Zero(t, n)
}

func TestRememberNameShowsInLeaderboard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStoreService(t, nil)

	require.NoError(t, svc.RememberName(ctx, "ghost", "@ghost"))
	total, err := svc.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, total, "naming an unknown user creates nothing")

	_, err = svc.IncrementBalance(ctx, "1", 60)
	require.NoError(t, err)
	require.NoError(t, svc.RememberName(ctx, "1", "@han"))

	top, err := svc.TopByBalance(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	ranked := domain.Rank(top)
	assert.Equal(t, "@han", ranked[0].DisplayName)
	assert.Equal(t, "Ember", ranked[0].Tier)
}
