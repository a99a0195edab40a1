package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"account-ledger/internal/service"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
}

func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

type TransferRequest struct {
	SourceAccountID      int64            `json:"source_account_id" validate:"required"`
	DestinationAccountID int64            `json:"destination_account_id" validate:"required"`
	Amount               *decimal.Decimal `json:"amount" validate:"required"`
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		WriteError(w, err)
		return
	}

	_, err := h.transactionService.Transfer(r.Context(), &service.TransferRequest{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               *req.Amount,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
