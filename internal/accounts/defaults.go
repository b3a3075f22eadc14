package accounts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/id"
	"github.com/securebank/securebank/internal/model"
)

// DemoAccounts returns the demo chart used by `init --demo`. IDs are stable
// so the chart can be seeded more than once. Balances are explained in full
// by DemoHistory.
func DemoAccounts(userID string) []model.Account {
	return []model.Account{
		{
			ID:            id.Seed("demo-checking"),
			AccountNumber: "1234567890",
			Type:          model.AccountTypeChecking,
			Balance:       decimal.RequireFromString("12456.78"),
			Active:        true,
			CreatedAt:     time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC),
			UserID:        userID,
		},
		{
			ID:            id.Seed("demo-savings"),
			AccountNumber: "0987654321",
			Type:          model.AccountTypeSavings,
			Balance:       decimal.RequireFromString("34892.45"),
			Active:        true,
			CreatedAt:     time.Date(2023, 2, 20, 14, 45, 0, 0, time.UTC),
			UserID:        userID,
		},
		{
			ID:            id.Seed("demo-credit"),
			AccountNumber: "5678901234",
			Type:          model.AccountTypeCredit,
			Balance:       decimal.RequireFromString("1543.67"),
			Active:        true,
			CreatedAt:     time.Date(2023, 3, 10, 9, 15, 0, 0, time.UTC),
			UserID:        userID,
		},
	}
}

// DemoHistory returns the completed records behind the DemoAccounts
// balances: an opening deposit per account followed by a few weeks of
// activity on checking, including a transfer to savings. Replaying it from
// zero reproduces every demo balance.
func DemoHistory() []model.Transaction {
	checking, savings, credit := id.Seed("demo-checking"), id.Seed("demo-savings"), id.Seed("demo-credit")

	opening := func(n int, accountID, amount string, at time.Time) model.Transaction {
		return model.Transaction{
			ID:          id.Seed(fmt.Sprintf("demo-opening-%d", n)),
			Reference:   fmt.Sprintf("TXNOPENING%05d", n),
			Type:        model.TypeDeposit,
			Amount:      decimal.RequireFromString(amount),
			Description: "Opening balance",
			Category:    model.CategoryIncome,
			Timestamp:   at,
			Status:      model.StatusCompleted,
			AccountID:   accountID,
		}
	}

	transferAt := time.Date(2023, 5, 4, 16, 45, 0, 0, time.UTC)

	return []model.Transaction{
		opening(1, checking, "10555.22", time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC)),
		opening(2, savings, "34392.45", time.Date(2023, 2, 20, 14, 45, 0, 0, time.UTC)),
		opening(3, credit, "1543.67", time.Date(2023, 3, 10, 9, 15, 0, 0, time.UTC)),
		{
			ID:           id.Seed("demo-txn-1"),
			Reference:    "TXN000123456789",
			Type:         model.TypeDeposit,
			Amount:       decimal.RequireFromString("2500.00"),
			Description:  "Salary Deposit",
			Category:     model.CategoryIncome,
			MerchantName: "Acme Corp",
			Timestamp:    time.Date(2023, 5, 1, 9, 15, 0, 0, time.UTC),
			Status:       model.StatusCompleted,
			AccountID:    checking,
		},
		{
			ID:           id.Seed("demo-txn-2"),
			Reference:    "TXN000987654321",
			Type:         model.TypePayment,
			Amount:       decimal.RequireFromString("-85.45"),
			Description:  "Grocery Shopping",
			Category:     "Food & Dining",
			MerchantName: "Whole Foods",
			Timestamp:    time.Date(2023, 5, 2, 14, 34, 0, 0, time.UTC),
			Status:       model.StatusCompleted,
			AccountID:    checking,
		},
		{
			ID:           id.Seed("demo-txn-3"),
			Reference:    "TXN000456789123",
			Type:         model.TypePayment,
			Amount:       decimal.RequireFromString("-12.99"),
			Description:  "Netflix Subscription",
			Category:     "Entertainment",
			MerchantName: "Netflix",
			Timestamp:    time.Date(2023, 5, 3, 10, 0, 0, 0, time.UTC),
			Status:       model.StatusCompleted,
			AccountID:    checking,
		},
		{
			ID:                   id.Seed("demo-txn-4a"),
			Reference:            "TXN000789123456a",
			Type:                 model.TypeTransfer,
			Amount:               decimal.RequireFromString("-500.00"),
			Description:          "Transfer to Savings",
			Category:             model.CategoryTransfer,
			Timestamp:            transferAt,
			Status:               model.StatusCompleted,
			AccountID:            checking,
			DestinationAccountID: savings,
		},
		{
			ID:              id.Seed("demo-txn-4b"),
			Reference:       "TXN000789123456b",
			Type:            model.TypeTransfer,
			Amount:          decimal.RequireFromString("500.00"),
			Description:     "Transfer to Savings",
			Category:        model.CategoryTransfer,
			Timestamp:       transferAt,
			Status:          model.StatusCompleted,
			AccountID:       savings,
			SourceAccountID: checking,
		},
	}
}
