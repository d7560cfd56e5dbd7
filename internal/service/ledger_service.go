package service

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/repository"
)

// LedgerService owns every balance mutation. Balances change only through
// Deposit, Withdraw, and Transfer, each executed as one database transaction
// that also appends the ledger record.
type LedgerService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewLedgerService(store *repository.Store, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
	}
}

// Deposit credits the account and appends a success record atomically.
func (s *LedgerService) Deposit(number string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	s.logger.Info("Processing deposit", "account_number", number, "amount", amount)

	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	transaction := &domain.Transaction{
		ID:            uuid.New(),
		Type:          domain.TypeDeposit,
		Amount:        amount,
		SourceAccount: number,
		Status:        domain.StatusPending,
		Description:   description,
	}

	err := s.store.WithTransaction(func(txStore *repository.Store) error {
		account, err := txStore.Account().GetAccountForUpdate(number)
		if err != nil {
			return err
		}

		if err := ensureCanTransact(account); err != nil {
			return err
		}

		newBalance := account.Balance.Add(amount)
		if err := txStore.Account().UpdateAccountBalance(number, newBalance); err != nil {
			return err
		}

		transaction.Status = domain.StatusSuccess
		transaction.BalanceAfter = newBalance
		return txStore.Transaction().CreateTransaction(transaction)
	})

	if err != nil {
		s.logger.Error("Deposit failed", "account_number", number, "error", err)
		s.recordFailure(transaction, err)
		return nil, err
	}

	s.logger.Info("Deposit completed", "transaction_id", transaction.ID, "balance_after", transaction.BalanceAfter)
	return transaction, nil
}

// Withdraw debits the account if the balance stays at or above the account's
// minimum-balance floor. Refusals leave state untouched.
func (s *LedgerService) Withdraw(number string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	s.logger.Info("Processing withdrawal", "account_number", number, "amount", amount)

	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	transaction := &domain.Transaction{
		ID:            uuid.New(),
		Type:          domain.TypeWithdrawal,
		Amount:        amount,
		SourceAccount: number,
		Status:        domain.StatusPending,
		Description:   description,
	}

	err := s.store.WithTransaction(func(txStore *repository.Store) error {
		account, err := txStore.Account().GetAccountForUpdate(number)
		if err != nil {
			return err
		}

		if err := ensureCanTransact(account); err != nil {
			return err
		}

		if !account.CanDebit(amount) {
			return errors.ErrInsufficientBalance
		}

		newBalance := account.Balance.Sub(amount)
		if err := txStore.Account().UpdateAccountBalance(number, newBalance); err != nil {
			return err
		}

		transaction.Status = domain.StatusSuccess
		transaction.BalanceAfter = newBalance
		return txStore.Transaction().CreateTransaction(transaction)
	})

	if err != nil {
		s.logger.Error("Withdrawal failed", "account_number", number, "error", err)
		s.recordFailure(transaction, err)
		return nil, err
	}

	s.logger.Info("Withdrawal completed", "transaction_id", transaction.ID, "balance_after", transaction.BalanceAfter)
	return transaction, nil
}

// Transfer moves funds between two accounts as one atomic unit: both rows are
// locked in a fixed global order, the debit and credit are applied, and a
// single success record referencing both accounts is appended, all inside one
// database transaction. BalanceAfter snapshots the source's post-debit
// balance.
func (s *LedgerService) Transfer(sourceNumber, targetNumber string, amount decimal.Decimal, description string, idempotencyKey *uuid.UUID) (*domain.Transaction, error) {
	s.logger.Info("Processing transfer",
		"source_account", sourceNumber,
		"target_account", targetNumber,
		"amount", amount)

	if sourceNumber == targetNumber {
		return nil, errors.ErrSameAccountTransfer
	}

	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	if idempotencyKey != nil {
		existing, err := s.store.Transaction().GetTransactionByIdempotencyKey(*idempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Returning recorded transaction for idempotency key",
				"idempotency_key", *idempotencyKey,
				"transaction_id", existing.ID)
			return existing, nil
		}
	}

	transaction := &domain.Transaction{
		ID:             uuid.New(),
		Type:           domain.TypeTransfer,
		Amount:         amount,
		SourceAccount:  sourceNumber,
		TargetAccount:  &targetNumber,
		Status:         domain.StatusPending,
		Description:    description,
		IdempotencyKey: idempotencyKey,
	}

	err := s.store.WithTransaction(func(txStore *repository.Store) error {
		source, target, err := lockAccountPair(txStore.Account(), sourceNumber, targetNumber)
		if err != nil {
			return err
		}

		if err := ensureCanTransact(source); err != nil {
			return err
		}
		if err := ensureCanTransact(target); err != nil {
			return err
		}

		if !source.CanDebit(amount) {
			return errors.ErrInsufficientBalance
		}

		newSourceBalance := source.Balance.Sub(amount)
		newTargetBalance := target.Balance.Add(amount)

		if err := txStore.Account().UpdateAccountBalance(sourceNumber, newSourceBalance); err != nil {
			return err
		}
		if err := txStore.Account().UpdateAccountBalance(targetNumber, newTargetBalance); err != nil {
			return err
		}

		transaction.Status = domain.StatusSuccess
		transaction.BalanceAfter = newSourceBalance
		return txStore.Transaction().CreateTransaction(transaction)
	})

	if err != nil {
		// A concurrent retry with the same key may win the insert race after
		// the pre-check above; the recorded transaction is the answer then.
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.Conflict && idempotencyKey != nil {
			existing, lookupErr := s.store.Transaction().GetTransactionByIdempotencyKey(*idempotencyKey)
			if lookupErr == nil && existing != nil {
				return existing, nil
			}
		}

		s.logger.Error("Transfer failed", "source_account", sourceNumber, "target_account", targetNumber, "error", err)
		s.recordFailure(transaction, err)
		return nil, err
	}

	s.logger.Info("Transfer completed", "transaction_id", transaction.ID, "balance_after", transaction.BalanceAfter)
	return transaction, nil
}

func (s *LedgerService) GetTransaction(id uuid.UUID) (*domain.Transaction, error) {
	transaction, err := s.store.Transaction().GetTransactionByID(id)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, errors.ErrTransactionNotFound
	}
	return transaction, nil
}

// ListAccountTransactions returns the account's statement, newest first.
func (s *LedgerService) ListAccountTransactions(number string) ([]*domain.Transaction, error) {
	if _, err := s.store.Account().GetAccount(number); err != nil {
		return nil, err
	}

	return s.store.Transaction().ListAccountTransactions(number)
}

// lockAccountPair acquires FOR UPDATE locks on both rows in ascending
// account-number order regardless of transfer direction, so concurrent A→B
// and B→A transfers cannot deadlock.
func lockAccountPair(repo domain.AccountRepository, sourceNumber, targetNumber string) (source, target *domain.Account, err error) {
	first, second := sourceNumber, targetNumber
	if second < first {
		first, second = second, first
	}

	firstAccount, err := repo.GetAccountForUpdate(first)
	if err != nil {
		return nil, nil, err
	}

	secondAccount, err := repo.GetAccountForUpdate(second)
	if err != nil {
		return nil, nil, err
	}

	if first == sourceNumber {
		return firstAccount, secondAccount, nil
	}
	return secondAccount, firstAccount, nil
}

// recordFailure appends a failed ledger record after a business-rule refusal.
// The balance rows were rolled back, so this is best-effort bookkeeping; the
// record deliberately drops the idempotency key to keep it usable for a real
// retry. Refusals for accounts that do not exist cannot be recorded at all.
func (s *LedgerService) recordFailure(transaction *domain.Transaction, cause error) {
	appErr, ok := cause.(*errors.AppError)
	if !ok {
		return
	}

	switch appErr.Code {
	case errors.InsufficientBalance, errors.AccountInactive:
	default:
		return
	}

	failed := *transaction
	failed.Status = domain.StatusFailed
	failed.BalanceAfter = decimal.Zero
	failed.IdempotencyKey = nil

	if err := s.store.Transaction().CreateTransaction(&failed); err != nil {
		s.logger.Error("Failed to record failed transaction", "transaction_id", failed.ID, "error", err)
	}
}
