package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tobi-akanji/account-service/internal/domain"
)

const accountColumns = `id, user_id, account_number, status, balance,
	registered_at, closed_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByNumber: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByNumber: %w", err)
	}
	return a, nil
}

// GetByNumberForUpdate reads the account inside tx with a row lock, so the
// balance seen by validation is the balance the update applies to.
func (r *AccountRepository) GetByNumberForUpdate(ctx context.Context, tx *sql.Tx, accountNumber string) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1 FOR UPDATE`, accountNumber,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByNumberForUpdate: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByNumberForUpdate: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY registered_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByUserID: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByUserID: rows: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountByUserID: %w", err)
	}
	return count, nil
}

// LastAccountNumber returns the highest assigned account number. Numbers are
// fixed-width digits, so lexicographic order matches numeric order.
func (r *AccountRepository) LastAccountNumber(ctx context.Context) (string, error) {
	var number string
	err := r.db.QueryRowContext(ctx,
		`SELECT account_number FROM accounts ORDER BY account_number DESC LIMIT 1`,
	).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("LastAccountNumber: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("LastAccountNumber: %w", err)
	}
	return number, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (
			id, user_id, account_number, status, balance, registered_at, closed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.UserID, account.AccountNumber, account.Status,
		account.Balance, account.RegisteredAt, account.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// UpdateBalance writes the post-mutation balance inside tx; callers pair it
// with a ledger append in the same transaction.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, accountNumber string, newBalance int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1 WHERE account_number = $2`,
		newBalance, accountNumber,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrAccountNotFound)
	}
	return nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, account *domain.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET status = $1, closed_at = $2 WHERE account_number = $3`,
		account.Status, account.ClosedAt, account.AccountNumber,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrAccountNotFound)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.UserID, &a.AccountNumber, &a.Status,
		&a.Balance, &a.RegisteredAt, &a.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
