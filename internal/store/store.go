// Package store is the storage port behind the account store and the ledger.
//
// Every backend applies a Posting atomically: either all balance adjustments
// and all transaction records land, or none do. Debits are checked against the
// balance inside the same critical section that applies them, so concurrent
// callers cannot overdraw an account.
package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/model"
)

// Supported storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Adjustment changes one account balance by Delta. A negative Delta is a
// debit and must not take the balance below zero.
type Adjustment struct {
	AccountID string
	Delta     decimal.Decimal
}

// Posting is the unit of work for a ledger operation.
type Posting struct {
	Transactions []model.Transaction
	Adjustments  []Adjustment
}

// Store persists accounts and the transaction ledger.
type Store interface {
	ListAccounts(ctx context.Context, userID string) ([]model.Account, error)
	GetAccount(ctx context.Context, id string) (model.Account, error)
	InsertAccount(ctx context.Context, acct model.Account) error
	SetActive(ctx context.Context, id string, active bool) (model.Account, error)
	// AdjustBalance adds delta to the balance with no floor check.
	AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (model.Account, error)
	// Post checks that every adjusted account exists, then that no debit
	// overdraws, then applies the adjustments and appends the transactions.
	Post(ctx context.Context, p Posting) error
	// TransactionsByAccount returns records for accountID newest first.
	// A limit <= 0 returns everything from offset on.
	TransactionsByAccount(ctx context.Context, accountID string, offset, limit int) ([]model.Transaction, error)
	Close() error
}

// Open returns a Store for driver. dsn is a file path for sqlite and a
// connection string for postgres; it is ignored for memory.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQL(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func notFound(id string) error {
	return fmt.Errorf("account %s: %w", id, model.ErrNotFound)
}

func insufficient(id string) error {
	return fmt.Errorf("account %s: %w", id, model.ErrInsufficientFunds)
}
