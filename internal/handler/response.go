package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tobi-akanji/account-service/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	RespondAppError(w, appErrorFor(err), nil)
}

func appErrorFor(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, domain.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, domain.ErrOwnerMismatch):
		return ErrOwnerMismatch
	case errors.Is(err, domain.ErrAccountClosed), errors.Is(err, domain.ErrAccountAlreadyClosed):
		return ErrAccountClosed
	case errors.Is(err, domain.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, domain.ErrTransactionNotFound):
		return ErrTransactionNotFound
	case errors.Is(err, domain.ErrTransactionAccountMismatch):
		return ErrTransactionMismatch
	case errors.Is(err, domain.ErrTransactionAlreadyCancelled):
		return ErrTransactionCancelled
	case errors.Is(err, domain.ErrPartialCancelNotAllowed):
		return ErrPartialCancel
	case errors.Is(err, domain.ErrCancelWindowExpired):
		return ErrCancelWindowExpired
	case errors.Is(err, domain.ErrLockUnavailable):
		return ErrAccountTransactionLock
	case errors.Is(err, domain.ErrMaxAccountsPerUser):
		return ErrMaxAccountsPerUser
	case errors.Is(err, domain.ErrBalanceNotEmpty):
		return ErrBalanceNotEmpty
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrValidationFailed
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound
	default:
		slog.Error("unhandled domain error", "error", err)
		return ErrInternalError
	}
}
