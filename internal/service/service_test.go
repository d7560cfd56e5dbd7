package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
)

func newTestStore(t *testing.T) (*repository.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repository.NewStore(db, logger), mock
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func accountRows(accounts ...*domain.Account) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"number", "owner_id", "category", "balance", "minimum_balance", "status", "created_at", "updated_at",
	})
	for _, a := range accounts {
		rows.AddRow(a.Number, a.OwnerID.String(), string(a.Category), a.Balance.String(),
			a.MinimumBalance.String(), string(a.Status), time.Now(), time.Now())
	}
	return rows
}

func transactionRows(transactions ...*domain.Transaction) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "type", "amount", "source_account", "target_account", "status",
		"description", "balance_after", "idempotency_key", "created_at", "updated_at",
	})
	for _, tx := range transactions {
		var target interface{}
		if tx.TargetAccount != nil {
			target = *tx.TargetAccount
		}
		var key interface{}
		if tx.IdempotencyKey != nil {
			key = tx.IdempotencyKey.String()
		}
		rows.AddRow(tx.ID.String(), string(tx.Type), tx.Amount.String(), tx.SourceAccount,
			target, string(tx.Status), tx.Description, tx.BalanceAfter.String(), key,
			time.Now(), time.Now())
	}
	return rows
}

func userRows(users ...*domain.User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"})
	for _, u := range users {
		rows.AddRow(u.ID.String(), u.Name, u.Email, time.Now(), time.Now())
	}
	return rows
}
