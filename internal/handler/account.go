package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tobi-akanji/account-service/internal/domain"
	"github.com/tobi-akanji/account-service/internal/logging"
)

type accountService interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, initialBalance int64) (*domain.Account, error)
	CloseAccount(ctx context.Context, userID uuid.UUID, accountNumber string) (*domain.Account, error)
	GetAccountsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	UserID         uuid.UUID `json:"user_id"`
	InitialBalance int64     `json:"initial_balance"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.UserID == uuid.Nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "required"})
	}
	if r.InitialBalance < 0 {
		errs = append(errs, FieldError{Field: "initial_balance", Message: "must not be negative"})
	}
	return errs
}

type closeAccountRequest struct {
	UserID        uuid.UUID `json:"user_id"`
	AccountNumber string    `json:"account_number"`
}

func (r closeAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.UserID == uuid.Nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "required"})
	}
	if r.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "account_number", Message: "required"})
	}
	return errs
}

type accountDTO struct {
	UserID        uuid.UUID  `json:"user_id"`
	AccountNumber string     `json:"account_number"`
	Status        string     `json:"status"`
	Balance       int64      `json:"balance"`
	RegisteredAt  time.Time  `json:"registered_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		UserID:        a.UserID,
		AccountNumber: a.AccountNumber,
		Status:        string(a.Status),
		Balance:       a.Balance,
		RegisteredAt:  a.RegisteredAt,
		ClosedAt:      a.ClosedAt,
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.UserID, req.InitialBalance)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req closeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.CloseAccount(r.Context(), req.UserID, req.AccountNumber)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to close account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "user_id", Message: "must be a valid id"}})
		return
	}

	accounts, err := h.accounts.GetAccountsByUser(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
