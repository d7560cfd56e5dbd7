package service

import (
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// Shared eligibility checks for every money movement, so deposits,
// withdrawals, and transfers agree on what a valid participant looks like.

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return errors.ErrInvalidAmount
	}
	return nil
}

func ensureCanTransact(account *domain.Account) error {
	if !account.CanTransact() {
		return errors.NewAppErrorf(errors.AccountInactive, "account %s is %s", account.Number, account.Status)
	}
	return nil
}
