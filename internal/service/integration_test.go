package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobi-akanji/account-service/internal/domain"
	"github.com/tobi-akanji/account-service/internal/repository"
	"github.com/tobi-akanji/account-service/internal/service"
	"github.com/tobi-akanji/account-service/internal/testutil"
)

func setupServices(t *testing.T, db *sql.DB) (*service.TransactionService, *service.AccountService) {
	t.Helper()

	users := repository.NewUserRepository(db)
	accounts := repository.NewAccountRepository(db)
	ledger := repository.NewLedgerRepository(db)

	return service.NewTransactionService(users, accounts, ledger, db),
		service.NewAccountService(users, accounts, 10)
}

func TestUseCancelScenario(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	txSvc, _ := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "Pobi")
	testutil.SeedTestAccount(t, db, user.ID, "1000000000", 10000)

	// Use 3000 of 10000.
	used, err := txSvc.UseBalance(ctx, user.ID, "1000000000", 3000)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeUse, used.Type)
	assert.Equal(t, domain.TransactionResultSuccess, used.Result)
	assert.Equal(t, int64(3000), used.Amount)
	assert.Equal(t, int64(7000), used.BalanceSnapshot)
	assert.Equal(t, int64(7000), testutil.GetAccountBalance(t, db, "1000000000"))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, "1000000000"))

	// Using 8000 against 7000 fails and changes nothing.
	_, err = txSvc.UseBalance(ctx, user.ID, "1000000000", 8000)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(7000), testutil.GetAccountBalance(t, db, "1000000000"))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, "1000000000"))

	// Full cancel restores the balance.
	cancelled, err := txSvc.CancelBalance(ctx, used.TransactionID, "1000000000", 3000)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeCancel, cancelled.Type)
	assert.Equal(t, domain.TransactionResultSuccess, cancelled.Result)
	assert.Equal(t, int64(10000), cancelled.BalanceSnapshot)
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, "1000000000"))

	// A second cancel of the same transaction is rejected.
	_, err = txSvc.CancelBalance(ctx, used.TransactionID, "1000000000", 3000)
	require.ErrorIs(t, err, domain.ErrTransactionAlreadyCancelled)
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, "1000000000"))
}

func TestUseBalanceValidationOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	txSvc, _ := setupServices(t, db)

	owner := testutil.SeedTestUser(t, db, "Owner")
	other := testutil.SeedTestUser(t, db, "Other")
	testutil.SeedTestAccount(t, db, owner.ID, "1000000000", 10000)

	// Unknown user wins over unknown account.
	_, err := txSvc.UseBalance(ctx, uuid.New(), "9999999999", 1000)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = txSvc.UseBalance(ctx, other.ID, "9999999999", 1000)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = txSvc.UseBalance(ctx, other.ID, "1000000000", 1000)
	require.ErrorIs(t, err, domain.ErrOwnerMismatch)

	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, "1000000000"))
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, "1000000000"))
}

func TestPartialCancelLeavesStateUntouched(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	txSvc, _ := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "Pobi")
	testutil.SeedTestAccount(t, db, user.ID, "1000000000", 10000)

	used, err := txSvc.UseBalance(ctx, user.ID, "1000000000", 3000)
	require.NoError(t, err)

	_, err = txSvc.CancelBalance(ctx, used.TransactionID, "1000000000", 1000)
	require.ErrorIs(t, err, domain.ErrPartialCancelNotAllowed)
	assert.Equal(t, int64(7000), testutil.GetAccountBalance(t, db, "1000000000"))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, "1000000000"))
}

func TestRecordFailedUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	txSvc, _ := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "Pobi")
	testutil.SeedTestAccount(t, db, user.ID, "1000000000", 7000)

	require.NoError(t, txSvc.RecordFailedUse(ctx, "1000000000", 8000))

	var result string
	var snapshot int64
	err := db.QueryRow(
		`SELECT result, balance_snapshot FROM ledger_entries WHERE account_number = '1000000000'`,
	).Scan(&result, &snapshot)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TransactionResultFailure), result)
	assert.Equal(t, int64(7000), snapshot)
	assert.Equal(t, int64(7000), testutil.GetAccountBalance(t, db, "1000000000"))
}

func TestGetTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	txSvc, _ := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "Pobi")
	testutil.SeedTestAccount(t, db, user.ID, "1000000000", 10000)

	used, err := txSvc.UseBalance(ctx, user.ID, "1000000000", 2500)
	require.NoError(t, err)

	got, err := txSvc.GetTransaction(ctx, used.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, used.TransactionID, got.TransactionID)
	assert.Equal(t, int64(2500), got.Amount)

	_, err = txSvc.GetTransaction(ctx, "00000000000000000000000000000000")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestConcurrentUseNeverOverdraws(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	txSvc, _ := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "Pobi")
	testutil.SeedTestAccount(t, db, user.ID, "1000000000", 10000)

	// Two 6000 debits against 10000: exactly one may win, even without the
	// distributed lock in front, because validation and the write share one
	// row-locked transaction.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = txSvc.UseBalance(ctx, user.ID, "1000000000", 6000)
		}()
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(4000), testutil.GetAccountBalance(t, db, "1000000000"))
}

func TestAccountLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	txSvc, acctSvc := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "Pobi")

	first, err := acctSvc.CreateAccount(ctx, user.ID, 10000)
	require.NoError(t, err)
	assert.Equal(t, "1000000000", first.AccountNumber)

	second, err := acctSvc.CreateAccount(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "1000000001", second.AccountNumber)

	accounts, err := acctSvc.GetAccountsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	// Closing requires an empty balance.
	_, err = acctSvc.CloseAccount(ctx, user.ID, first.AccountNumber)
	require.ErrorIs(t, err, domain.ErrBalanceNotEmpty)

	used, err := txSvc.UseBalance(ctx, user.ID, first.AccountNumber, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), used.BalanceSnapshot)

	closed, err := acctSvc.CloseAccount(ctx, user.ID, first.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	// A closed account rejects further use ...
	_, err = txSvc.UseBalance(ctx, user.ID, first.AccountNumber, 100)
	require.ErrorIs(t, err, domain.ErrAccountClosed)

	// ... but historical entries can still be reversed.
	cancelled, err := txSvc.CancelBalance(ctx, used.TransactionID, first.AccountNumber, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), cancelled.BalanceSnapshot)
}

func TestMaxAccountsPerUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	_, acctSvc := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "Collector")
	for range 10 {
		_, err := acctSvc.CreateAccount(ctx, user.ID, 0)
		require.NoError(t, err)
	}

	_, err := acctSvc.CreateAccount(ctx, user.ID, 0)
	require.ErrorIs(t, err, domain.ErrMaxAccountsPerUser)
}
