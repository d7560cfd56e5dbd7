package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type CreateAccountRequest struct {
	OwnerID        string `json:"owner_id" validate:"required,uuid4"`
	Category       string `json:"category" validate:"required"`
	MinimumBalance string `json:"minimum_balance,omitempty"`
}

type AccountResponse struct {
	AccountNumber  string `json:"account_number"`
	OwnerID        string `json:"owner_id"`
	Category       string `json:"category"`
	Balance        string `json:"balance"`
	MinimumBalance string `json:"minimum_balance"`
	Status         string `json:"status"`
}

func accountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		AccountNumber:  account.Number,
		OwnerID:        account.OwnerID.String(),
		Category:       string(account.Category),
		Balance:        account.Balance.String(),
		MinimumBalance: account.MinimumBalance.String(),
		Status:         string(account.Status),
	}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	req, appErr := decodeAndValidate[CreateAccountRequest](r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid owner_id format"))
		return
	}

	minimumBalance := decimal.Zero
	if req.MinimumBalance != "" {
		minimumBalance, err = decimal.NewFromString(req.MinimumBalance)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid minimum_balance format"))
			return
		}
	}

	account, err := h.accountService.CreateAccount(ownerID, domain.AccountCategory(req.Category), minimumBalance)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse(account))
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]

	account, err := h.accountService.GetAccount(number)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}

func (h *AccountHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]

	if err := h.accountService.CloseAccount(number); err != nil {
		writeServiceError(w, err)
		return
	}

	account, err := h.accountService.GetAccount(number)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}
