package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tobi-akanji/account-service/internal/domain"
	"github.com/tobi-akanji/account-service/internal/logging"
)

const firstAccountNumber = "1000000000"

type AccountService struct {
	users          userRepository
	accounts       accountRepository
	maxAccountsPer int
}

func NewAccountService(users userRepository, accounts accountRepository, maxAccountsPerUser int) *AccountService {
	return &AccountService{
		users:          users,
		accounts:       accounts,
		maxAccountsPer: maxAccountsPerUser,
	}
}

// CreateAccount opens an account for the user with the next sequential
// account number, starting at 1000000000.
func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, initialBalance int64) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	count, err := s.accounts.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}
	if count >= s.maxAccountsPer {
		return nil, fmt.Errorf("CreateAccount: %w", domain.ErrMaxAccountsPerUser)
	}

	number, err := s.nextAccountNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	account := &domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: number,
		Status:        domain.AccountStatusInUse,
		Balance:       initialBalance,
		RegisteredAt:  time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	log.Info("account created",
		"account_number", account.AccountNumber,
		"user_id", userID,
		"initial_balance", initialBalance,
	)

	return account, nil
}

func (s *AccountService) nextAccountNumber(ctx context.Context) (string, error) {
	last, err := s.accounts.LastAccountNumber(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return firstAccountNumber, nil
		}
		return "", fmt.Errorf("nextAccountNumber: %w", err)
	}

	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return "", fmt.Errorf("nextAccountNumber: parse %q: %w", last, err)
	}
	return fmt.Sprintf("%010d", n+1), nil
}

// CloseAccount marks the account closed. Only the owner can close it, and
// only once the balance is empty.
func (s *AccountService) CloseAccount(ctx context.Context, userID uuid.UUID, accountNumber string) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CloseAccount: %w", err)
	}

	account, err := s.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("CloseAccount: %w", err)
	}

	if err := validateCloseAccount(user, account); err != nil {
		return nil, fmt.Errorf("CloseAccount: %w", err)
	}

	now := time.Now().UTC()
	account.Status = domain.AccountStatusClosed
	account.ClosedAt = &now

	if err := s.accounts.UpdateStatus(ctx, account); err != nil {
		return nil, fmt.Errorf("CloseAccount: %w", err)
	}

	log.Info("account closed", "account_number", accountNumber, "user_id", userID)

	return account, nil
}

func validateCloseAccount(user *domain.User, account *domain.Account) error {
	if user.ID != account.UserID {
		return domain.ErrOwnerMismatch
	}
	if account.Status == domain.AccountStatusClosed {
		return domain.ErrAccountAlreadyClosed
	}
	if account.Balance > 0 {
		return domain.ErrBalanceNotEmpty
	}
	return nil
}

func (s *AccountService) GetAccountsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("GetAccountsByUser: %w", err)
	}

	accounts, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetAccountsByUser: %w", err)
	}
	return accounts, nil
}
