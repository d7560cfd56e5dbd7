package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountCategory is the contract type an account is opened under.
type AccountCategory string

const (
	CategoryWadiah     AccountCategory = "wadiah"     // custodial
	CategoryMudharabah AccountCategory = "mudharabah" // profit-sharing
	CategoryMusyarakah AccountCategory = "musyarakah" // partnership
)

func (c AccountCategory) Valid() bool {
	switch c {
	case CategoryWadiah, CategoryMudharabah, CategoryMusyarakah:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
	AccountBlocked  AccountStatus = "blocked"
	AccountClosed   AccountStatus = "closed"
)

type Account struct {
	Number         string          `json:"account_number"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	Category       AccountCategory `json:"category"`
	Balance        decimal.Decimal `json:"balance"`
	MinimumBalance decimal.Decimal `json:"minimum_balance"`
	Status         AccountStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CanTransact reports whether the account may participate in a money movement.
func (a *Account) CanTransact() bool {
	return a.Status == AccountActive
}

// CanDebit reports whether debiting amount keeps the balance at or above the
// account's minimum-balance floor.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.Sub(amount).GreaterThanOrEqual(a.MinimumBalance)
}

type AccountRepository interface {
	CreateAccount(account *Account) error
	GetAccount(number string) (*Account, error)
	GetAccountForUpdate(number string) (*Account, error)
	UpdateAccountBalance(number string, newBalance decimal.Decimal) error
	UpdateAccountStatus(number string, status AccountStatus) error
}
