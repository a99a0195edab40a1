package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"account-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// CreateAccountRequest is the submitted account representation. Any id or
// ledger in the body is ignored: accounts always start fresh.
type CreateAccountRequest struct {
	Owner   string           `json:"owner" validate:"required,max=120"`
	Balance *decimal.Decimal `json:"balance" validate:"required"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		WriteError(w, err)
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), req.Owner, *req.Balance)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// GetBalance answers 0.00 for unknown accounts.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	balance, err := h.accountService.GetBalance(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, json.Number(balance.StringFixed(2)))
}

// GetStatement answers an empty envelope for unknown accounts.
func (h *AccountHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	account, err := h.accountService.GetStatement(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	if account == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
