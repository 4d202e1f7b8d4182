package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/tobi-akanji/account-service/internal/domain"
)

type userRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type accountRepository interface {
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetByNumberForUpdate(ctx context.Context, tx *sql.Tx, accountNumber string) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	LastAccountNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, account *domain.Account) error
	UpdateBalance(ctx context.Context, tx *sql.Tx, accountNumber string, newBalance int64) error
	UpdateStatus(ctx context.Context, account *domain.Account) error
}

type ledgerRepository interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.LedgerEntry, error)
	MarkCancelled(ctx context.Context, tx *sql.Tx, transactionID string, at time.Time) error
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
