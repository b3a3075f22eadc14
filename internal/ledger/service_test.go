package ledger

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securebank/securebank/internal/accounts"
	"github.com/securebank/securebank/internal/model"
	"github.com/securebank/securebank/internal/store"
)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingPublisher struct {
	mu   sync.Mutex
	txns []model.Transaction
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, txn model.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txns = append(p.txns, txn)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	accounts *accounts.Service
	ledger   *Service
	events   *recordingPublisher
	clock    time.Time
}

// tick advances the fixture clock so each posting gets a distinct timestamp.
func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func newFixture(t *testing.T, st store.Store) *fixture {
	t.Helper()
	f := &fixture{
		accounts: accounts.NewService(st, "1"),
		events:   &recordingPublisher{},
		clock:    time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	f.ledger = NewService(st, f.events, nil)
	f.ledger.Now = f.tick
	return f
}

// openAccount creates a checking account and funds it through the ledger.
func (f *fixture) openAccount(t *testing.T, balance string) model.Account {
	t.Helper()
	ctx := context.Background()
	acct, err := f.accounts.Create(ctx, accounts.CreateParams{Type: model.AccountTypeChecking})
	require.NoError(t, err)
	if b := amt(balance); b.IsPositive() {
		_, err := f.ledger.Deposit(ctx, DepositParams{AccountID: acct.ID, Amount: b, Description: "opening"})
		require.NoError(t, err)
	}
	return acct
}

func (f *fixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	acct, err := f.accounts.Get(context.Background(), accountID)
	require.NoError(t, err)
	return acct.Balance
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	acct := f.openAccount(t, "0")

	txn, err := f.ledger.Deposit(ctx, DepositParams{
		AccountID:    acct.ID,
		Amount:       amt("100"),
		Description:  "Paycheck",
		MerchantName: "ACME Corp",
	})
	require.NoError(t, err)

	assert.Equal(t, model.TypeDeposit, txn.Type)
	assert.True(t, txn.Amount.Equal(amt("100")))
	assert.Equal(t, model.CategoryIncome, txn.Category)
	assert.Equal(t, "ACME Corp", txn.MerchantName)
	assert.Equal(t, model.StatusCompleted, txn.Status)
	assert.Equal(t, acct.ID, txn.AccountID)
	assert.Len(t, txn.Reference, 15)
	assert.True(t, f.balance(t, acct.ID).Equal(amt("100")))
}

func TestDeposit_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	acct := f.openAccount(t, "10")

	for _, a := range []string{"0", "-5", "1.005"} {
		_, err := f.ledger.Deposit(ctx, DepositParams{AccountID: acct.ID, Amount: amt(a)})
		assert.ErrorIs(t, err, model.ErrInvalidAmount, "amount %s", a)
	}
	assert.True(t, f.balance(t, acct.ID).Equal(amt("10")))

	txns, err := f.ledger.ListByAccount(ctx, acct.ID, nil)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestDeposit_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())

	_, err := f.ledger.Deposit(ctx, DepositParams{AccountID: "ghost", Amount: amt("5")})
	assert.ErrorIs(t, err, model.ErrNotFound)

	txns, err := f.ledger.ListByAccount(ctx, "ghost", nil)
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.Empty(t, f.events.txns)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	acct := f.openAccount(t, "100")

	txn, err := f.ledger.Withdraw(ctx, WithdrawParams{AccountID: acct.ID, Amount: amt("100"), Description: "ATM"})
	require.NoError(t, err)
	assert.Equal(t, model.TypeWithdrawal, txn.Type)
	assert.True(t, txn.Amount.Equal(amt("-100")))
	assert.Equal(t, model.CategoryWithdrawal, txn.Category)
	assert.True(t, f.balance(t, acct.ID).IsZero(), "may drain to exactly zero")
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	acct := f.openAccount(t, "50")

	_, err := f.ledger.Withdraw(ctx, WithdrawParams{AccountID: acct.ID, Amount: amt("50.01")})
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.True(t, f.balance(t, acct.ID).Equal(amt("50")))

	txns, err := f.ledger.ListByAccount(ctx, acct.ID, nil)
	require.NoError(t, err)
	assert.Len(t, txns, 1, "only the opening deposit")
}

func TestWithdraw_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())

	_, err := f.ledger.Withdraw(ctx, WithdrawParams{AccountID: "ghost", Amount: amt("0")})
	assert.ErrorIs(t, err, model.ErrInvalidAmount, "amount is checked before the account")

	_, err = f.ledger.Withdraw(ctx, WithdrawParams{AccountID: "ghost", Amount: amt("1")})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	a := f.openAccount(t, "100")
	b := f.openAccount(t, "0")

	txn, err := f.ledger.Transfer(ctx, TransferParams{
		SourceAccountID:      a.ID,
		DestinationAccountID: b.ID,
		Amount:               amt("50"),
		Description:          "rent share",
	})
	require.NoError(t, err)

	assert.Equal(t, model.TypeTransfer, txn.Type)
	assert.Equal(t, a.ID, txn.AccountID)
	assert.Equal(t, b.ID, txn.DestinationAccountID)
	assert.True(t, txn.Amount.Equal(amt("-50")))
	assert.Equal(t, model.CategoryTransfer, txn.Category)

	assert.True(t, f.balance(t, a.ID).Equal(amt("50")))
	assert.True(t, f.balance(t, b.ID).Equal(amt("50")))

	srcHist, err := f.ledger.ListByAccount(ctx, a.ID, nil)
	require.NoError(t, err)
	var transfers []model.Transaction
	for _, h := range srcHist {
		if h.Type == model.TypeTransfer {
			transfers = append(transfers, h)
		}
	}
	require.Len(t, transfers, 1, "exactly one transfer record on the source")
	assert.Equal(t, b.ID, transfers[0].DestinationAccountID)
	assert.True(t, transfers[0].Amount.Equal(amt("-50")))

	dstHist, err := f.ledger.ListByAccount(ctx, b.ID, nil)
	require.NoError(t, err)
	require.Len(t, dstHist, 1)
	credit := dstHist[0]
	assert.Equal(t, a.ID, credit.SourceAccountID)
	assert.True(t, credit.Amount.Equal(amt("50")))
	assert.Equal(t, txn.ReferenceGroup(), credit.ReferenceGroup())
	assert.NotEqual(t, txn.Reference, credit.Reference)
	assert.True(t, txn.Timestamp.Equal(credit.Timestamp))
}

func TestTransfer_ErrorOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	a := f.openAccount(t, "10")
	b := f.openAccount(t, "0")

	tests := []struct {
		name    string
		params  TransferParams
		wantErr error
	}{
		{"invalid amount beats same account", TransferParams{SourceAccountID: a.ID, DestinationAccountID: a.ID, Amount: amt("0")}, model.ErrInvalidAmount},
		{"same account regardless of balance", TransferParams{SourceAccountID: a.ID, DestinationAccountID: a.ID, Amount: amt("1000")}, model.ErrSameAccount},
		{"same unknown account", TransferParams{SourceAccountID: "ghost", DestinationAccountID: "ghost", Amount: amt("1")}, model.ErrSameAccount},
		{"unknown destination beats insufficient", TransferParams{SourceAccountID: a.ID, DestinationAccountID: "ghost", Amount: amt("1000")}, model.ErrNotFound},
		{"unknown source", TransferParams{SourceAccountID: "ghost", DestinationAccountID: b.ID, Amount: amt("1")}, model.ErrNotFound},
		{"insufficient", TransferParams{SourceAccountID: a.ID, DestinationAccountID: b.ID, Amount: amt("10.01")}, model.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Transfer(ctx, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.True(t, f.balance(t, a.ID).Equal(amt("10")))
	assert.True(t, f.balance(t, b.ID).IsZero())
	hist, err := f.ledger.ListByAccount(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	acct := f.openAccount(t, "80")

	txn, err := f.ledger.Payment(ctx, PaymentParams{
		AccountID:    acct.ID,
		Amount:       amt("30.25"),
		Description:  "Electric bill",
		MerchantName: "City Power",
		Category:     "Utilities",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TypePayment, txn.Type)
	assert.True(t, txn.Amount.Equal(amt("-30.25")))
	assert.Equal(t, "Utilities", txn.Category)
	assert.Equal(t, "City Power", txn.MerchantName)
	assert.True(t, f.balance(t, acct.ID).Equal(amt("49.75")))

	txn, err = f.ledger.Payment(ctx, PaymentParams{AccountID: acct.ID, Amount: amt("1")})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryPayment, txn.Category)

	_, err = f.ledger.Payment(ctx, PaymentParams{AccountID: acct.ID, Amount: amt("100")})
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
	_, err = f.ledger.Payment(ctx, PaymentParams{AccountID: "ghost", Amount: amt("1")})
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.ledger.Payment(ctx, PaymentParams{AccountID: acct.ID, Amount: amt("-1")})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestBalanceEqualsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	a := f.openAccount(t, "500")
	b := f.openAccount(t, "20")

	steps := []func() error{
		func() error {
			_, err := f.ledger.Withdraw(ctx, WithdrawParams{AccountID: a.ID, Amount: amt("120.50")})
			return err
		},
		func() error {
			_, err := f.ledger.Transfer(ctx, TransferParams{SourceAccountID: a.ID, DestinationAccountID: b.ID, Amount: amt("79.50")})
			return err
		},
		func() error {
			_, err := f.ledger.Payment(ctx, PaymentParams{AccountID: b.ID, Amount: amt("99.50"), MerchantName: "Grocer"})
			return err
		},
		func() error {
			_, err := f.ledger.Withdraw(ctx, WithdrawParams{AccountID: b.ID, Amount: amt("1")})
			return err
		},
	}
	for _, step := range steps {
		require.NoError(t, step())
	}

	for _, acct := range []model.Account{a, b} {
		r, err := f.ledger.Reconcile(ctx, acct.ID, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, r.OK(), "%v", r.Errors)
		assert.True(t, r.Expected.Equal(f.balance(t, acct.ID)))
	}
	assert.True(t, f.balance(t, a.ID).Equal(amt("300")))
	assert.True(t, f.balance(t, b.ID).Equal(amt("0")))
}

func TestListByAccount_OrderAndFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	a := f.openAccount(t, "10")
	b := f.openAccount(t, "10")

	for range 3 {
		_, err := f.ledger.Deposit(ctx, DepositParams{AccountID: a.ID, Amount: amt("1")})
		require.NoError(t, err)
		_, err = f.ledger.Deposit(ctx, DepositParams{AccountID: b.ID, Amount: amt("2")})
		require.NoError(t, err)
	}

	txns, err := f.ledger.ListByAccount(ctx, a.ID, nil)
	require.NoError(t, err)
	require.Len(t, txns, 4)
	for i, txn := range txns {
		assert.Equal(t, a.ID, txn.AccountID)
		if i > 0 {
			assert.True(t, txns[i-1].Timestamp.After(txn.Timestamp), "strictly descending")
		}
	}
}

func TestListByAccount_Pagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	acct := f.openAccount(t, "0")

	var refs []string
	for range 5 {
		txn, err := f.ledger.Deposit(ctx, DepositParams{AccountID: acct.ID, Amount: amt("1")})
		require.NoError(t, err)
		refs = append([]string{txn.Reference}, refs...)
	}

	tests := []struct {
		page Page
		want []string
	}{
		{Page{Number: 0, Size: 2}, refs[0:2]},
		{Page{Number: 1, Size: 2}, refs[2:4]},
		{Page{Number: 2, Size: 2}, refs[4:5]},
		{Page{Number: 3, Size: 2}, nil},
		{Page{Number: 0, Size: 20}, refs},
	}
	for _, tt := range tests {
		got, err := f.ledger.ListByAccount(ctx, acct.ID, &tt.page)
		require.NoError(t, err)
		var gotRefs []string
		for _, txn := range got {
			gotRefs = append(gotRefs, txn.Reference)
		}
		assert.Equal(t, tt.want, gotRefs, "page %+v", tt.page)
	}

	for _, bad := range []Page{{Number: -1, Size: 2}, {Number: 0, Size: 0}, {Number: 0, Size: -3}} {
		_, err := f.ledger.ListByAccount(ctx, acct.ID, &bad)
		assert.ErrorIs(t, err, model.ErrInvalidPage)
	}
}

func TestListByAccount_OffsetOverflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	acct := f.openAccount(t, "5")

	// 2305843009213693953 * 4 wraps past math.MaxInt.
	for _, accountID := range []string{acct.ID, "ghost"} {
		_, err := f.ledger.ListByAccount(ctx, accountID, &Page{Number: 2305843009213693953, Size: 4})
		assert.ErrorIs(t, err, model.ErrInvalidPage)
	}

	last := Page{Number: math.MaxInt / 4, Size: 4}
	require.NoError(t, last.Validate())
	got, err := f.ledger.ListByAccount(ctx, acct.ID, &last)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScenario_CheckingAccount(t *testing.T) {
	for name, open := range map[string]func(t *testing.T) store.Store{
		"memory": func(t *testing.T) store.Store { return store.NewMemoryStore() },
		"sqlite": func(t *testing.T) store.Store {
			st, err := store.OpenSQL(store.DriverSQLite, filepath.Join(t.TempDir(), "bank.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })
			return st
		},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, open(t))

			acct, err := f.accounts.Create(ctx, accounts.CreateParams{Type: model.AccountTypeChecking})
			require.NoError(t, err)
			_, err = f.ledger.Deposit(ctx, DepositParams{AccountID: acct.ID, Amount: amt("1000")})
			require.NoError(t, err)
			_, err = f.ledger.Withdraw(ctx, WithdrawParams{AccountID: acct.ID, Amount: amt("200")})
			require.NoError(t, err)

			assert.True(t, f.balance(t, acct.ID).Equal(amt("800")))

			txns, err := f.ledger.ListByAccount(ctx, acct.ID, nil)
			require.NoError(t, err)
			require.Len(t, txns, 2)
			for _, txn := range txns {
				assert.Equal(t, model.StatusCompleted, txn.Status)
			}
			assert.Equal(t, model.TypeWithdrawal, txns[0].Type)
			assert.Equal(t, model.TypeDeposit, txns[1].Type)
		})
	}
}

func TestConcurrentWithdrawals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	f.ledger.Now = func() time.Time { return time.Now().UTC() }
	acct := f.openAccount(t, "100")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Withdraw(ctx, WithdrawParams{AccountID: acct.ID, Amount: amt("7")})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, model.ErrInsufficientFunds)
		}()
	}
	wg.Wait()

	bal := f.balance(t, acct.ID)
	assert.False(t, bal.IsNegative())
	assert.Equal(t, 14, succeeded)
	assert.True(t, bal.Equal(amt("100").Sub(amt("7").Mul(decimal.NewFromInt(int64(succeeded))))))
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	a := f.openAccount(t, "10")
	b := f.openAccount(t, "0")

	_, err := f.ledger.Transfer(ctx, TransferParams{SourceAccountID: a.ID, DestinationAccountID: b.ID, Amount: amt("4")})
	require.NoError(t, err)
	_, err = f.ledger.Withdraw(ctx, WithdrawParams{AccountID: b.ID, Amount: amt("40")})
	require.ErrorIs(t, err, model.ErrInsufficientFunds)

	// opening deposit, then both transfer legs; failures publish nothing
	require.Len(t, f.events.txns, 3)
	assert.Equal(t, model.TypeDeposit, f.events.txns[0].Type)
	assert.Equal(t, a.ID, f.events.txns[1].AccountID)
	assert.Equal(t, b.ID, f.events.txns[2].AccountID)
}

func TestEvents_PublishFailureDoesNotFailPosting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemoryStore())
	f.events.err = errors.New("nats down")
	acct := f.openAccount(t, "0")

	_, err := f.ledger.Deposit(ctx, DepositParams{AccountID: acct.ID, Amount: amt("3")})
	require.NoError(t, err)
	assert.True(t, f.balance(t, acct.ID).Equal(amt("3")))
}
