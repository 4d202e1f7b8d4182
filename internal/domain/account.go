package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AccountStatus string

const (
	AccountStatusInUse  AccountStatus = "in_use"
	AccountStatusClosed AccountStatus = "closed"
)

// Account holds a single user-owned balance in the smallest currency unit.
// The balance only changes through UseBalance and CancelBalance, and only
// while the account's distributed lock is held.
type Account struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AccountNumber string
	Status        AccountStatus
	Balance       int64
	RegisteredAt  time.Time
	ClosedAt      *time.Time
}

// UseBalance debits amount from the account. The balance never goes negative.
func (a *Account) UseBalance(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("UseBalance: %w", ErrInvalidAmount)
	}
	if amount > a.Balance {
		return fmt.Errorf("UseBalance: %w", ErrInsufficientBalance)
	}
	a.Balance -= amount
	return nil
}

// CancelBalance credits a previously used amount back to the account.
func (a *Account) CancelBalance(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("CancelBalance: %w", ErrInvalidAmount)
	}
	a.Balance += amount
	return nil
}
