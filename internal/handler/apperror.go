package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrUserNotFound           = &AppError{http.StatusNotFound, "USER_NOT_FOUND", "User not found"}
	ErrAccountNotFound        = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrOwnerMismatch          = &AppError{http.StatusUnprocessableEntity, "USER_ACCOUNT_MISMATCH", "Account is not owned by user"}
	ErrAccountClosed          = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_ALREADY_CLOSED", "Account is closed"}
	ErrInsufficientBalance    = &AppError{http.StatusUnprocessableEntity, "AMOUNT_EXCEED_BALANCE", "Amount exceeds account balance"}
	ErrTransactionNotFound    = &AppError{http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found"}
	ErrTransactionMismatch    = &AppError{http.StatusUnprocessableEntity, "TRANSACTION_ACCOUNT_MISMATCH", "Transaction does not belong to account"}
	ErrTransactionCancelled   = &AppError{http.StatusUnprocessableEntity, "TRANSACTION_ALREADY_CANCELLED", "Transaction already cancelled"}
	ErrPartialCancel          = &AppError{http.StatusUnprocessableEntity, "CANCEL_MUST_BE_FULL", "Cancel amount must equal original amount"}
	ErrCancelWindowExpired    = &AppError{http.StatusUnprocessableEntity, "CANCEL_WINDOW_EXPIRED", "Transaction is too old to cancel"}
	ErrAccountTransactionLock = &AppError{http.StatusConflict, "ACCOUNT_TRANSACTION_LOCK", "Another transaction is in progress on this account"}
	ErrMaxAccountsPerUser     = &AppError{http.StatusUnprocessableEntity, "MAX_ACCOUNTS_PER_USER", "User already has the maximum number of accounts"}
	ErrBalanceNotEmpty        = &AppError{http.StatusUnprocessableEntity, "BALANCE_NOT_EMPTY", "Account balance must be empty"}
)
