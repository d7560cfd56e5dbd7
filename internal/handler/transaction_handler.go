package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type TransactionHandler struct {
	ledgerService *service.LedgerService
}

func NewTransactionHandler(ledgerService *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
	}
}

type MovementRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description,omitempty"`
}

type TransferRequest struct {
	SourceAccount  string `json:"source_account" validate:"required"`
	TargetAccount  string `json:"target_account" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type TransactionResponse struct {
	TransactionID  string  `json:"transaction_id"`
	Type           string  `json:"type"`
	Amount         string  `json:"amount"`
	SourceAccount  string  `json:"source_account"`
	TargetAccount  *string `json:"target_account,omitempty"`
	Status         string  `json:"status"`
	Description    string  `json:"description,omitempty"`
	BalanceAfter   string  `json:"balance_after"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func transactionResponse(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: tx.ID.String(),
		Type:          string(tx.Type),
		Amount:        tx.Amount.String(),
		SourceAccount: tx.SourceAccount,
		TargetAccount: tx.TargetAccount,
		Status:        string(tx.Status),
		Description:   tx.Description,
		BalanceAfter:  tx.BalanceAfter.String(),
		CreatedAt:     tx.CreatedAt.UTC().Format(time.RFC3339),
	}

	if tx.IdempotencyKey != nil {
		keyStr := tx.IdempotencyKey.String()
		resp.IdempotencyKey = &keyStr
	}

	return resp
}

func parseAmount(raw string) (decimal.Decimal, *errors.AppError) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error())
	}
	return amount, nil
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]

	req, appErr := decodeAndValidate[MovementRequest](r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	transaction, err := h.ledgerService.Deposit(number, amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transactionResponse(transaction))
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]

	req, appErr := decodeAndValidate[MovementRequest](r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	transaction, err := h.ledgerService.Withdraw(number, amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transactionResponse(transaction))
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	req, appErr := decodeAndValidate[TransferRequest](r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	var idempotencyKey *uuid.UUID
	if req.IdempotencyKey != "" {
		key, err := uuid.Parse(req.IdempotencyKey)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidInput, "invalid idempotency_key format").WithDetails(err.Error()))
			return
		}
		idempotencyKey = &key
	}

	transaction, err := h.ledgerService.Transfer(req.SourceAccount, req.TargetAccount, amount, req.Description, idempotencyKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transactionResponse(transaction))
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := uuid.Parse(vars["transaction_id"])
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid transaction_id format"))
		return
	}

	transaction, err := h.ledgerService.GetTransaction(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transactionResponse(transaction))
}

func (h *TransactionHandler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]

	transactions, err := h.ledgerService.ListAccountTransactions(number)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		responses = append(responses, transactionResponse(tx))
	}

	writeJSON(w, http.StatusOK, responses)
}
