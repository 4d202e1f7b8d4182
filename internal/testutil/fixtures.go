package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tobi-akanji/account-service/internal/domain"
)

func SeedTestUser(t *testing.T, db *sql.DB, name string) *domain.User {
	t.Helper()

	u := &domain.User{
		ID:        uuid.New(),
		Name:      name,
		Status:    domain.UserStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO users (id, name, status, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Name, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func SeedTestAccount(t *testing.T, db *sql.DB, userID uuid.UUID, accountNumber string, balance int64) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: accountNumber,
		Status:        domain.AccountStatusInUse,
		Balance:       balance,
		RegisteredAt:  time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO accounts (id, user_id, account_number, status, balance, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.AccountNumber, a.Status, a.Balance, a.RegisteredAt,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", accountNumber, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountNumber string) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(
		`SELECT balance FROM accounts WHERE account_number = $1`, accountNumber,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance of %s: %v", accountNumber, err)
	}
	return balance
}

func CountLedgerEntries(t *testing.T, db *sql.DB, accountNumber string) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM ledger_entries WHERE account_number = $1`, accountNumber,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries of %s: %v", accountNumber, err)
	}
	return count
}
