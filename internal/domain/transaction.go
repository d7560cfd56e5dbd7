package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeTransfer   TransactionType = "transfer"
	TypeFee        TransactionType = "fee"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusSuccess   TransactionStatus = "success"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

// Settled reports whether the record has reached a terminal status. Settled
// records are immutable.
func (s TransactionStatus) Settled() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

type Transaction struct {
	ID             uuid.UUID         `json:"id"`
	Type           TransactionType   `json:"type"`
	Amount         decimal.Decimal   `json:"amount"`
	SourceAccount  string            `json:"source_account"`
	TargetAccount  *string           `json:"target_account,omitempty"`
	Status         TransactionStatus `json:"status"`
	Description    string            `json:"description,omitempty"`
	BalanceAfter   decimal.Decimal   `json:"balance_after"`
	IdempotencyKey *uuid.UUID        `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type TransactionRepository interface {
	CreateTransaction(tx *Transaction) error
	GetTransactionByID(id uuid.UUID) (*Transaction, error)
	GetTransactionByIdempotencyKey(key uuid.UUID) (*Transaction, error)
	ListAccountTransactions(number string) ([]*Transaction, error)
}
