package domain

import "errors"

var (
	ErrNotFound                    = errors.New("not found")
	ErrUserNotFound                = errors.New("user not found")
	ErrAccountNotFound             = errors.New("account not found")
	ErrOwnerMismatch               = errors.New("account is not owned by user")
	ErrAccountClosed               = errors.New("account is closed")
	ErrInsufficientBalance         = errors.New("amount exceeds account balance")
	ErrInvalidAmount               = errors.New("amount must be greater than zero")
	ErrTransactionNotFound         = errors.New("transaction not found")
	ErrTransactionAccountMismatch  = errors.New("transaction does not belong to account")
	ErrTransactionAlreadyCancelled = errors.New("transaction already cancelled")
	ErrPartialCancelNotAllowed     = errors.New("cancel amount must equal original amount")
	ErrCancelWindowExpired         = errors.New("transaction is too old to cancel")
	ErrLockUnavailable             = errors.New("account lock unavailable")
	ErrMaxAccountsPerUser          = errors.New("user already has the maximum number of accounts")
	ErrAccountAlreadyClosed        = errors.New("account already closed")
	ErrBalanceNotEmpty             = errors.New("account balance must be empty")
)
