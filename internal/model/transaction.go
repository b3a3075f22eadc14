package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/id"
)

// TransactionType identifies the ledger operation that produced a record.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeTransfer   TransactionType = "TRANSFER"
	TypePayment    TransactionType = "PAYMENT"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusReversed  TransactionStatus = "REVERSED"
)

// Fixed categories for non-payment transactions.
const (
	CategoryIncome     = "Income"
	CategoryWithdrawal = "Withdrawal"
	CategoryTransfer   = "Transfer"
	CategoryPayment    = "Payment"
)

var transitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusReversed},
}

// CanTransition reports whether a transaction may move from s to next.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transaction is one ledger record against a single account.
type Transaction struct {
	ID                   string            `json:"id"`
	Reference            string            `json:"referenceNumber"`
	Type                 TransactionType   `json:"type"`
	Amount               decimal.Decimal   `json:"amount"` // positive = inflow, negative = outflow
	Description          string            `json:"description"`
	Category             string            `json:"category"`
	MerchantName         string            `json:"merchantName,omitempty"`
	Timestamp            time.Time         `json:"timestamp"`
	Status               TransactionStatus `json:"status"`
	AccountID            string            `json:"accountId"`
	DestinationAccountID string            `json:"destinationAccountId,omitempty"` // transfer debit leg
	SourceAccountID      string            `json:"sourceAccountId,omitempty"`      // transfer credit leg
}

// Transition moves the transaction to next, or fails with ErrInvalidTransition.
func (t *Transaction) Transition(next TransactionStatus) error {
	if !t.Status.CanTransition(next) {
		return fmt.Errorf("%s %s -> %s: %w", t.Reference, t.Status, next, ErrInvalidTransition)
	}
	t.Status = next
	return nil
}

// ReferenceGroup returns the reference without a transfer leg suffix.
// "TXN0A1B2C3D4E5Fa" -> "TXN0A1B2C3D4E5F"
func (t Transaction) ReferenceGroup() string {
	return id.ReferenceGroup(t.Reference)
}

// SignMatchesType reports whether Amount follows the sign convention for Type.
func (t Transaction) SignMatchesType() bool {
	switch t.Type {
	case TypeDeposit:
		return t.Amount.IsPositive()
	case TypeWithdrawal, TypePayment:
		return t.Amount.IsNegative()
	case TypeTransfer:
		if t.DestinationAccountID != "" {
			return t.Amount.IsNegative()
		}
		return t.Amount.IsPositive()
	}
	return false
}

// BankTransaction is a parsed bank statement row, classified as the ledger
// operation that replays it.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = money out, positive = money in
	Reference   string          // unique within one statement
	BankCode    string          // bank transaction code (ACH_DEBIT, ATM, etc.)
	Kind        TransactionType // DEPOSIT, WITHDRAWAL or PAYMENT; empty when unclassified
	Category    string          // payment category; empty for other kinds
}
