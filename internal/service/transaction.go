package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tobi-akanji/account-service/internal/domain"
	"github.com/tobi-akanji/account-service/internal/logging"
)

// TransactionService is the balance mutation engine. Every mutating method
// assumes the caller already holds the account's distributed lock; the
// balance update and the ledger append always commit or roll back as one
// database transaction.
type TransactionService struct {
	users    userRepository
	accounts accountRepository
	ledger   ledgerRepository
	db       txBeginner
}

func NewTransactionService(users userRepository, accounts accountRepository, ledger ledgerRepository, db txBeginner) *TransactionService {
	return &TransactionService{
		users:    users,
		accounts: accounts,
		ledger:   ledger,
		db:       db,
	}
}

// UseBalance debits amount from the account and appends a success entry.
func (s *TransactionService) UseBalance(ctx context.Context, userID uuid.UUID, accountNumber string, amount int64) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("UseBalance: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("UseBalance: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetByNumberForUpdate(ctx, tx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("UseBalance: %w", err)
	}

	if err := validateUseBalance(user, account, amount); err != nil {
		return nil, fmt.Errorf("UseBalance: %w", err)
	}

	if err := account.UseBalance(amount); err != nil {
		return nil, fmt.Errorf("UseBalance: %w", err)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, accountNumber, account.Balance); err != nil {
		return nil, fmt.Errorf("UseBalance: %w", err)
	}

	entry := buildEntry(domain.TransactionTypeUse, domain.TransactionResultSuccess, account, amount)
	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("UseBalance: ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("UseBalance: commit: %w", err)
	}

	log.Info("balance used",
		"account_number", accountNumber,
		"amount", amount,
		"balance", account.Balance,
		"transaction_id", entry.TransactionID,
	)

	return entry, nil
}

func validateUseBalance(user *domain.User, account *domain.Account, amount int64) error {
	if user.ID != account.UserID {
		return domain.ErrOwnerMismatch
	}
	if account.Status != domain.AccountStatusInUse {
		return domain.ErrAccountClosed
	}
	if amount > account.Balance {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// RecordFailedUse appends a failure entry with the unchanged balance as
// snapshot. Callers use it to leave an audit trail when a use attempt was
// rejected after the lock was acquired; it never mutates the balance.
func (s *TransactionService) RecordFailedUse(ctx context.Context, accountNumber string, amount int64) error {
	if err := s.recordFailure(ctx, domain.TransactionTypeUse, accountNumber, amount); err != nil {
		return fmt.Errorf("RecordFailedUse: %w", err)
	}
	return nil
}

// CancelBalance reverses a previous use in full, crediting the amount back
// and stamping the original entry so it cannot be cancelled twice.
func (s *TransactionService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	original, err := s.ledger.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("CancelBalance: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CancelBalance: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetByNumberForUpdate(ctx, tx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("CancelBalance: %w", err)
	}

	now := time.Now().UTC()
	if err := validateCancelBalance(original, account, amount, now); err != nil {
		return nil, fmt.Errorf("CancelBalance: %w", err)
	}

	if err := account.CancelBalance(amount); err != nil {
		return nil, fmt.Errorf("CancelBalance: %w", err)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, accountNumber, account.Balance); err != nil {
		return nil, fmt.Errorf("CancelBalance: %w", err)
	}

	if err := s.ledger.MarkCancelled(ctx, tx, transactionID, now); err != nil {
		return nil, fmt.Errorf("CancelBalance: %w", err)
	}

	entry := buildEntry(domain.TransactionTypeCancel, domain.TransactionResultSuccess, account, amount)
	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("CancelBalance: ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CancelBalance: commit: %w", err)
	}

	log.Info("balance use cancelled",
		"account_number", accountNumber,
		"amount", amount,
		"balance", account.Balance,
		"original_transaction_id", transactionID,
		"transaction_id", entry.TransactionID,
	)

	return entry, nil
}

// Ownership and account status are deliberately not re-checked here: a
// closed account can still have historical entries reversed for audit
// correction.
func validateCancelBalance(original *domain.LedgerEntry, account *domain.Account, amount int64, now time.Time) error {
	if original.AccountNumber != account.AccountNumber {
		return domain.ErrTransactionAccountMismatch
	}
	if original.CancelledAt != nil {
		return domain.ErrTransactionAlreadyCancelled
	}
	if original.Amount != amount {
		return domain.ErrPartialCancelNotAllowed
	}
	if original.TransactedAt.Before(now.AddDate(-1, 0, 0)) {
		return domain.ErrCancelWindowExpired
	}
	return nil
}

// RecordFailedCancel mirrors RecordFailedUse for the cancel path.
func (s *TransactionService) RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) error {
	if err := s.recordFailure(ctx, domain.TransactionTypeCancel, accountNumber, amount); err != nil {
		return fmt.Errorf("RecordFailedCancel: %w", err)
	}
	return nil
}

func (s *TransactionService) recordFailure(ctx context.Context, txType domain.TransactionType, accountNumber string, amount int64) error {
	account, err := s.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	entry := buildEntry(txType, domain.TransactionResultFailure, account, amount)
	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logging.FromContext(ctx).Info("failed transaction recorded",
		"account_number", accountNumber,
		"type", txType,
		"amount", amount,
	)
	return nil
}

// GetTransaction looks up a ledger entry by its transaction id. Entries are
// immutable, so no locking applies.
func (s *TransactionService) GetTransaction(ctx context.Context, transactionID string) (*domain.LedgerEntry, error) {
	entry, err := s.ledger.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return entry, nil
}

// buildEntry snapshots the account's balance as it stands after the attempt:
// the mutated balance on success, the untouched balance on failure.
func buildEntry(txType domain.TransactionType, result domain.TransactionResult, account *domain.Account, amount int64) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:              uuid.New(),
		TransactionID:   domain.NewTransactionID(),
		AccountNumber:   account.AccountNumber,
		Type:            txType,
		Result:          result,
		Amount:          amount,
		BalanceSnapshot: account.Balance,
		TransactedAt:    time.Now().UTC(),
	}
}
