package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/model"
)

const timeFormat = "2006-01-02 15:04"

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, model.ErrInvalidAmount)
	}
	return d, nil
}

func coloredAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	switch {
	case d.IsPositive():
		return pterm.Green(s)
	case d.IsNegative():
		return pterm.Red(s)
	default:
		return s
	}
}

func renderAccounts(w io.Writer, title string, accts []model.Account) error {
	tableData := pterm.TableData{{"ID", "Number", "Type", "Balance", "Active", "Opened"}}
	for _, a := range accts {
		active := pterm.Green("yes")
		if !a.Active {
			active = pterm.Gray("no")
		}
		tableData = append(tableData, []string{
			a.ID,
			a.AccountNumber,
			string(a.Type),
			coloredAmount(a.Balance),
			active,
			a.CreatedAt.Local().Format(timeFormat),
		})
	}

	pterm.DefaultSection.WithWriter(w).Println(title)
	if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).WithWriter(w).Render(); err != nil {
		return fmt.Errorf("rendering accounts: %w", err)
	}
	pterm.Info.WithWriter(w).Printf("Total: %d accounts\n", len(accts))
	return nil
}

func renderTransactions(w io.Writer, title string, txns []model.Transaction) error {
	tableData := pterm.TableData{{"Reference", "Date", "Type", "Amount", "Category", "Description", "Counterparty"}}
	for _, t := range txns {
		counterparty := t.MerchantName
		switch {
		case t.DestinationAccountID != "":
			counterparty = "to " + t.DestinationAccountID
		case t.SourceAccountID != "":
			counterparty = "from " + t.SourceAccountID
		}
		tableData = append(tableData, []string{
			t.Reference,
			t.Timestamp.Local().Format(timeFormat),
			string(t.Type),
			coloredAmount(t.Amount),
			t.Category,
			t.Description,
			counterparty,
		})
	}

	pterm.DefaultSection.WithWriter(w).Println(title)
	if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).WithWriter(w).Render(); err != nil {
		return fmt.Errorf("rendering transactions: %w", err)
	}
	return nil
}

func renderPosted(w io.Writer, txn model.Transaction, balance decimal.Decimal) {
	pterm.Success.WithWriter(w).Printf("%s %s %s on %s\n", txn.Type, txn.Reference, txn.Amount.StringFixed(2), txn.AccountID)
	pterm.Info.WithWriter(w).Printf("Balance: %s (%s)\n", balance.StringFixed(2), txn.Timestamp.Format(time.RFC3339))
}
