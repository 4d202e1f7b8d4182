package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tobi-akanji/account-service/internal/domain"
)

const ledgerColumns = `id, transaction_id, account_number, transaction_type,
	result, amount, balance_snapshot, cancelled_at, transacted_at`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create appends an entry inside tx so the write commits or rolls back
// together with the balance update it records.
func (r *LedgerRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (
			id, transaction_id, account_number, transaction_type,
			result, amount, balance_snapshot, cancelled_at, transacted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.TransactionID, entry.AccountNumber, entry.Type,
		entry.Result, entry.Amount, entry.BalanceSnapshot, entry.CancelledAt,
		entry.TransactedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE transaction_id = $1`, transactionID,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByTransactionID: %w", domain.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("GetByTransactionID: %w", err)
	}
	return e, nil
}

// MarkCancelled stamps the original entry inside tx when a cancel against it
// succeeds. The stamp is what rejects a second cancel of the same transaction.
func (r *LedgerRepository) MarkCancelled(ctx context.Context, tx *sql.Tx, transactionID string, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_entries SET cancelled_at = $1
		WHERE transaction_id = $2 AND cancelled_at IS NULL`,
		at, transactionID,
	)
	if err != nil {
		return fmt.Errorf("MarkCancelled: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkCancelled: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("MarkCancelled: %w", domain.ErrTransactionAlreadyCancelled)
	}
	return nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.TransactionID, &e.AccountNumber, &e.Type,
		&e.Result, &e.Amount, &e.BalanceSnapshot, &e.CancelledAt,
		&e.TransactedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
