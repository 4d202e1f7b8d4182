package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tobi-akanji/account-service/internal/domain"
	"github.com/tobi-akanji/account-service/internal/lock"
	"github.com/tobi-akanji/account-service/internal/logging"
)

type transactionService interface {
	UseBalance(ctx context.Context, userID uuid.UUID, accountNumber string, amount int64) (*domain.LedgerEntry, error)
	RecordFailedUse(ctx context.Context, accountNumber string, amount int64) error
	CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.LedgerEntry, error)
	RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) error
	GetTransaction(ctx context.Context, transactionID string) (*domain.LedgerEntry, error)
}

// TransactionHandler fronts the balance mutation engine. Mutations run under
// the account's distributed lock, and business rejections that happen after
// the lock was acquired leave a failure entry in the ledger before the error
// reaches the client.
type TransactionHandler struct {
	transactions transactionService
	guard        *lock.Guard
}

func NewTransactionHandler(transactions transactionService, guard *lock.Guard) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, guard: guard}
}

type useBalanceRequest struct {
	UserID        uuid.UUID `json:"user_id"`
	AccountNumber string    `json:"account_number"`
	Amount        int64     `json:"amount"`
}

func (r useBalanceRequest) Validate() []FieldError {
	var errs []FieldError
	if r.UserID == uuid.Nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "required"})
	}
	if r.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "account_number", Message: "required"})
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	return errs
}

type cancelBalanceRequest struct {
	TransactionID string `json:"transaction_id"`
	AccountNumber string `json:"account_number"`
	Amount        int64  `json:"amount"`
}

func (r cancelBalanceRequest) Validate() []FieldError {
	var errs []FieldError
	if r.TransactionID == "" {
		errs = append(errs, FieldError{Field: "transaction_id", Message: "required"})
	}
	if r.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "account_number", Message: "required"})
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	return errs
}

type transactionDTO struct {
	AccountNumber string    `json:"account_number"`
	Type          string    `json:"transaction_type"`
	Result        string    `json:"transaction_result"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	TransactedAt  time.Time `json:"transacted_at"`
}

func toTransactionDTO(e *domain.LedgerEntry) transactionDTO {
	return transactionDTO{
		AccountNumber: e.AccountNumber,
		Type:          string(e.Type),
		Result:        string(e.Result),
		TransactionID: e.TransactionID,
		Amount:        e.Amount,
		TransactedAt:  e.TransactedAt,
	}
}

func (h *TransactionHandler) Use(w http.ResponseWriter, r *http.Request) {
	var req useBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entry, err := lock.InLock(r.Context(), h.guard, req.AccountNumber, func(ctx context.Context) (*domain.LedgerEntry, error) {
		e, err := h.transactions.UseBalance(ctx, req.UserID, req.AccountNumber, req.Amount)
		if err != nil {
			if isUseRejection(err) {
				h.recordFailure(ctx, h.transactions.RecordFailedUse, req.AccountNumber, req.Amount)
			}
			return nil, err
		}
		return e, nil
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("use balance failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(entry))
}

func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entry, err := lock.InLock(r.Context(), h.guard, req.AccountNumber, func(ctx context.Context) (*domain.LedgerEntry, error) {
		e, err := h.transactions.CancelBalance(ctx, req.TransactionID, req.AccountNumber, req.Amount)
		if err != nil {
			if isCancelRejection(err) {
				h.recordFailure(ctx, h.transactions.RecordFailedCancel, req.AccountNumber, req.Amount)
			}
			return nil, err
		}
		return e, nil
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("cancel balance failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(entry))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	transactionID := r.PathValue("transactionId")
	if transactionID == "" {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	entry, err := h.transactions.GetTransaction(r.Context(), transactionID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(entry))
}

// recordFailure writes the compensating failure entry; a failed write is
// logged but never masks the original rejection.
func (h *TransactionHandler) recordFailure(ctx context.Context, record func(context.Context, string, int64) error, accountNumber string, amount int64) {
	if err := record(ctx, accountNumber, amount); err != nil {
		logging.FromContext(ctx).Error("failed to record failed transaction",
			"account_number", accountNumber,
			"amount", amount,
			"error", err,
		)
	}
}

// isUseRejection reports whether a use attempt was rejected by a business
// rule after the account was found, which is when a failure entry can and
// should be written.
func isUseRejection(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) ||
		errors.Is(err, domain.ErrOwnerMismatch) ||
		errors.Is(err, domain.ErrAccountClosed) ||
		errors.Is(err, domain.ErrInsufficientBalance) ||
		errors.Is(err, domain.ErrInvalidAmount)
}

func isCancelRejection(err error) bool {
	return errors.Is(err, domain.ErrTransactionNotFound) ||
		errors.Is(err, domain.ErrTransactionAccountMismatch) ||
		errors.Is(err, domain.ErrTransactionAlreadyCancelled) ||
		errors.Is(err, domain.ErrPartialCancelNotAllowed) ||
		errors.Is(err, domain.ErrCancelWindowExpired) ||
		errors.Is(err, domain.ErrInvalidAmount)
}
