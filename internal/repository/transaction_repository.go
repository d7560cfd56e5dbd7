package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateTransaction appends a ledger record. Records are never updated once
// their status is terminal; the ledger is append-only.
func (r *transactionRepository) CreateTransaction(tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, type, amount, source_account, target_account, status, description, balance_after, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now()

	var targetAccount interface{}
	if tx.TargetAccount != nil {
		targetAccount = *tx.TargetAccount
	}

	var idempotencyKey interface{}
	if tx.IdempotencyKey != nil {
		idempotencyKey = *tx.IdempotencyKey
	}

	_, err := r.db.Exec(
		query,
		tx.ID,
		tx.Type,
		tx.Amount.String(),
		tx.SourceAccount,
		targetAccount,
		tx.Status,
		tx.Description,
		tx.BalanceAfter.String(),
		idempotencyKey,
		now,
		now,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "idx_transactions_idempotency_key" {
				r.logger.Warn("Duplicate idempotency key", "idempotency_key", tx.IdempotencyKey)
				return errors.ErrDuplicateKey
			}
		}
		r.logger.Error("Failed to create transaction",
			"source_account", tx.SourceAccount,
			"type", tx.Type,
			"amount", tx.Amount,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to create transaction").WithDetails(err.Error())
	}

	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.logger.Info("Transaction recorded", "transaction_id", tx.ID, "type", tx.Type, "status", tx.Status)
	return nil
}

func (r *transactionRepository) GetTransactionByID(id uuid.UUID) (*domain.Transaction, error) {
	query := `
		SELECT id, type, amount, source_account, target_account, status, description, balance_after, idempotency_key, created_at, updated_at
		FROM transactions WHERE id = $1
	`

	return r.scanTransaction(r.db.QueryRow(query, id))
}

func (r *transactionRepository) GetTransactionByIdempotencyKey(key uuid.UUID) (*domain.Transaction, error) {
	query := `
		SELECT id, type, amount, source_account, target_account, status, description, balance_after, idempotency_key, created_at, updated_at
		FROM transactions WHERE idempotency_key = $1
	`

	return r.scanTransaction(r.db.QueryRow(query, key))
}

func (r *transactionRepository) ListAccountTransactions(number string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, type, amount, source_account, target_account, status, description, balance_after, idempotency_key, created_at, updated_at
		FROM transactions
		WHERE source_account = $1 OR target_account = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, number)
	if err != nil {
		r.logger.Error("Failed to list transactions", "account_number", number, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		tx, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}

	return transactions, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *transactionRepository) scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var transaction domain.Transaction
	var amountStr, balanceAfterStr string
	var targetAccount sql.NullString
	var idempotencyKey sql.NullString

	err := row.Scan(
		&transaction.ID,
		&transaction.Type,
		&amountStr,
		&transaction.SourceAccount,
		&targetAccount,
		&transaction.Status,
		&transaction.Description,
		&balanceAfterStr,
		&idempotencyKey,
		&transaction.CreatedAt,
		&transaction.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get transaction").WithDetails(err.Error())
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
	}
	transaction.Amount = amount

	balanceAfter, err := decimal.NewFromString(balanceAfterStr)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance snapshot").WithDetails(err.Error())
	}
	transaction.BalanceAfter = balanceAfter

	if targetAccount.Valid {
		target := targetAccount.String
		transaction.TargetAccount = &target
	}

	if idempotencyKey.Valid {
		key, err := uuid.Parse(idempotencyKey.String)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse idempotency key").WithDetails(err.Error())
		}
		transaction.IdempotencyKey = &key
	}

	return &transaction, nil
}
