package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeUse    TransactionType = "use"
	TransactionTypeCancel TransactionType = "cancel"
)

type TransactionResult string

const (
	TransactionResultSuccess TransactionResult = "success"
	TransactionResultFailure TransactionResult = "failure"
)

// LedgerEntry records one balance-affecting attempt, successful or failed.
// Entries are append-only: corrections happen by writing a cancel entry,
// never by editing history. The single exception is CancelledAt, which is
// stamped on a use entry once a cancel against it succeeds so the same
// transaction cannot be cancelled twice.
type LedgerEntry struct {
	ID              uuid.UUID
	TransactionID   string
	AccountNumber   string
	Type            TransactionType
	Result          TransactionResult
	Amount          int64
	BalanceSnapshot int64
	CancelledAt     *time.Time
	TransactedAt    time.Time
}

// NewTransactionID returns a 32-character hex identifier with negligible
// collision probability; no uniqueness check happens at write time.
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
