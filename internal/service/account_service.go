package service

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/repository"
)

// maxNumberAttempts bounds the regeneration loop on an account-number
// collision before the failure escalates to the caller.
const maxNumberAttempts = 3

type AccountService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewAccountService(store *repository.Store, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger,
	}
}

// CreateAccount opens an account for an existing owner with a zero balance.
// The generated account number is retried internally on collision.
func (s *AccountService) CreateAccount(ownerID uuid.UUID, category domain.AccountCategory, minimumBalance decimal.Decimal) (*domain.Account, error) {
	s.logger.Info("Creating account", "owner_id", ownerID, "category", category, "minimum_balance", minimumBalance)

	if !category.Valid() {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "unknown account category %q", category)
	}

	if minimumBalance.IsNegative() {
		return nil, errors.NewAppError(errors.InvalidInput, "minimum balance must not be negative")
	}

	if _, err := s.store.User().GetUser(ownerID); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		account := &domain.Account{
			Number:         generateAccountNumber(),
			OwnerID:        ownerID,
			Category:       category,
			Balance:        decimal.Zero,
			MinimumBalance: minimumBalance,
			Status:         domain.AccountActive,
		}

		err := s.store.Account().CreateAccount(account)
		if err == nil {
			s.logger.Info("Account created successfully", "account_number", account.Number)
			return account, nil
		}

		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.Conflict {
			s.logger.Warn("Account number collision, regenerating", "attempt", attempt+1)
			lastErr = err
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

func (s *AccountService) GetAccount(number string) (*domain.Account, error) {
	s.logger.Info("Getting account", "account_number", number)

	if number == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "account number is required")
	}

	return s.store.Account().GetAccount(number)
}

// CloseAccount marks the account closed. The row and its transaction history
// stay in place; closed accounts refuse further money movement.
func (s *AccountService) CloseAccount(number string) error {
	s.logger.Info("Closing account", "account_number", number)

	account, err := s.store.Account().GetAccount(number)
	if err != nil {
		return err
	}

	if account.Status == domain.AccountClosed {
		return nil
	}

	return s.store.Account().UpdateAccountStatus(number, domain.AccountClosed)
}

// generateAccountNumber derives a 16-digit account number from the current
// millisecond timestamp plus a random suffix. Collisions are possible within
// the same millisecond; CreateAccount handles them by regenerating.
func generateAccountNumber() string {
	return fmt.Sprintf("%012d%04d", time.Now().UnixMilli()%1_000_000_000_000, rand.IntN(10_000))
}
