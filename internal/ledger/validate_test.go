package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securebank/securebank/internal/model"
	"github.com/securebank/securebank/internal/store"
)

func validRecord() model.Transaction {
	return model.Transaction{
		Reference: "TXN0K3Z9Q1B7XWD",
		Type:      model.TypeDeposit,
		Amount:    amt("10.00"),
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:    model.StatusCompleted,
		AccountID: "a",
	}
}

func checks(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Check)
	}
	return out
}

func TestValidateTransactions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Transaction)
		want   []string
	}{
		{"valid", func(*model.Transaction) {}, nil},
		{"foreign account", func(txn *model.Transaction) { txn.AccountID = "b" }, []string{CheckAccount}},
		{"pending", func(txn *model.Transaction) { txn.Status = model.StatusPending }, []string{CheckStatus}},
		{"negative deposit", func(txn *model.Transaction) { txn.Amount = amt("-10") }, []string{CheckSign}},
		{"sub-cent", func(txn *model.Transaction) { txn.Amount = amt("10.001") }, []string{CheckPrecision}},
		{"bad reference", func(txn *model.Transaction) { txn.Reference = "REF-1" }, []string{CheckReference}},
		{"leg suffix on deposit", func(txn *model.Transaction) { txn.Reference += "a" }, []string{CheckReference}},
		{"transfer without leg suffix", func(txn *model.Transaction) {
			txn.Type = model.TypeTransfer
			txn.SourceAccountID = "b"
		}, []string{CheckReference}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := validRecord()
			tt.mutate(&txn)
			assert.Equal(t, tt.want, checks(ValidateTransactions([]model.Transaction{txn}, "a")))
		})
	}
}

func TestValidateTransactions_DuplicateReference(t *testing.T) {
	txn := validRecord()
	errs := ValidateTransactions([]model.Transaction{txn, txn}, "a")
	require.Len(t, errs, 1)
	assert.Equal(t, CheckReference, errs[0].Check)
	assert.Contains(t, errs[0].Error(), "duplicate")
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	f := newFixture(t, st)
	acct := f.openAccount(t, "25")

	r, err := f.ledger.Reconcile(ctx, acct.ID, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.OK())
	assert.Equal(t, 1, r.Records)
	assert.True(t, r.Net.Equal(amt("25")))

	// A raw adjustment bypasses the ledger and shows up as drift.
	_, err = f.accounts.AdjustBalance(ctx, acct.ID, amt("5"))
	require.NoError(t, err)

	r, err = f.ledger.Reconcile(ctx, acct.ID, decimal.Zero)
	require.NoError(t, err)
	assert.False(t, r.OK())
	assert.Equal(t, []string{CheckBalance}, checks(r.Errors))

	r, err = f.ledger.Reconcile(ctx, acct.ID, amt("5"))
	require.NoError(t, err)
	assert.True(t, r.OK(), "opening balance accounts for the adjustment")

	_, err = f.ledger.Reconcile(ctx, "ghost", decimal.Zero)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
