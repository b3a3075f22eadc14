package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionReferenceGroup(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"TXN0A1B2C3D4E5Fa", "TXN0A1B2C3D4E5F"},
		{"TXN0A1B2C3D4E5Fb", "TXN0A1B2C3D4E5F"},
		{"TXN0A1B2C3D4E5F", "TXN0A1B2C3D4E5F"},
		{"", ""},
	}
	for _, tt := range tests {
		txn := Transaction{Reference: tt.ref}
		assert.Equal(t, tt.want, txn.ReferenceGroup(), "ReferenceGroup(%q)", tt.ref)
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to TransactionStatus
		ok       bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusReversed, false},
		{StatusCompleted, StatusReversed, true},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
		{StatusReversed, StatusCompleted, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTransition(t *testing.T) {
	txn := Transaction{Reference: "TXN1", Status: StatusPending}
	require.NoError(t, txn.Transition(StatusCompleted))
	assert.Equal(t, StatusCompleted, txn.Status)

	err := txn.Transition(StatusFailed)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCompleted, txn.Status, "status must not change on a rejected transition")
}

func TestSignMatchesType(t *testing.T) {
	pos := decimal.NewFromInt(10)
	neg := pos.Neg()
	tests := []struct {
		name string
		txn  Transaction
		want bool
	}{
		{"deposit positive", Transaction{Type: TypeDeposit, Amount: pos}, true},
		{"deposit negative", Transaction{Type: TypeDeposit, Amount: neg}, false},
		{"withdrawal negative", Transaction{Type: TypeWithdrawal, Amount: neg}, true},
		{"payment positive", Transaction{Type: TypePayment, Amount: pos}, false},
		{"transfer debit leg", Transaction{Type: TypeTransfer, Amount: neg, DestinationAccountID: "b"}, true},
		{"transfer credit leg", Transaction{Type: TypeTransfer, Amount: pos, SourceAccountID: "a"}, true},
		{"transfer debit leg wrong sign", Transaction{Type: TypeTransfer, Amount: pos, DestinationAccountID: "b"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.txn.SignMatchesType(), tt.name)
	}
}

func TestParseAccountType(t *testing.T) {
	got, err := ParseAccountType("savings")
	require.NoError(t, err)
	assert.Equal(t, AccountTypeSavings, got)

	_, err = ParseAccountType("brokerage")
	assert.ErrorIs(t, err, ErrInvalidAccountType)
}
