package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(account *domain.Account) error {
	query := `
		INSERT INTO accounts (number, owner_id, category, balance, minimum_balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		account.Number,
		account.OwnerID,
		account.Category,
		account.Balance.String(),
		account.MinimumBalance.String(),
		account.Status,
		now,
		now,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				r.logger.Warn("Account number collision", "account_number", account.Number)
				return errors.ErrDuplicateAccount
			}
		}
		r.logger.Error("Failed to create account", "account_number", account.Number, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create account").WithDetails(err.Error())
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	r.logger.Info("Account created", "account_number", account.Number, "owner_id", account.OwnerID)
	return nil
}

func (r *accountRepository) GetAccount(number string) (*domain.Account, error) {
	query := `
		SELECT number, owner_id, category, balance, minimum_balance, status, created_at, updated_at
		FROM accounts WHERE number = $1 AND deleted_at IS NULL
	`

	return r.scanAccount(query, number)
}

// GetAccountForUpdate takes a row-level lock on the account; it must run
// inside a transaction.
func (r *accountRepository) GetAccountForUpdate(number string) (*domain.Account, error) {
	query := `
		SELECT number, owner_id, category, balance, minimum_balance, status, created_at, updated_at
		FROM accounts WHERE number = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	return r.scanAccount(query, number)
}

func (r *accountRepository) scanAccount(query string, number string) (*domain.Account, error) {
	var account domain.Account
	var balanceStr, minimumStr string

	err := r.db.QueryRow(query, number).Scan(
		&account.Number,
		&account.OwnerID,
		&account.Category,
		&balanceStr,
		&minimumStr,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "account_number", number)
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "account_number", number, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account_number", number, "balance_str", balanceStr, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}
	minimum, err := decimal.NewFromString(minimumStr)
	if err != nil {
		r.logger.Error("Failed to parse minimum balance", "account_number", number, "minimum_str", minimumStr, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse minimum balance").WithDetails(err.Error())
	}

	account.Balance = balance
	account.MinimumBalance = minimum
	return &account, nil
}

func (r *accountRepository) UpdateAccountBalance(number string, newBalance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = $2
		WHERE number = $3 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, newBalance.String(), time.Now(), number)
	if err != nil {
		r.logger.Error("Failed to update account balance", "account_number", number, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to update", "account_number", number)
		return errors.ErrAccountNotFound
	}

	r.logger.Info("Account balance updated", "account_number", number, "new_balance", newBalance)
	return nil
}

func (r *accountRepository) UpdateAccountStatus(number string, status domain.AccountStatus) error {
	query := `
		UPDATE accounts
		SET status = $1, updated_at = $2
		WHERE number = $3 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, status, time.Now(), number)
	if err != nil {
		r.logger.Error("Failed to update account status", "account_number", number, "status", status, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account status").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}

	r.logger.Info("Account status updated", "account_number", number, "status", status)
	return nil
}
