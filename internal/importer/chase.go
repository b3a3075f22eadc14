package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/model"
)

// ChaseParser parses Chase checking CSV exports.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDetails = 0
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
)

// classification is how a row replays against the ledger.
type classification struct {
	kind     model.TransactionType
	category string
}

// chaseOutflows classifies money leaving the account by Chase type code.
// Outflows with other codes become payments in the Imported category.
// Inflows are always deposits.
var chaseOutflows = map[string]classification{
	"ATM":             {model.TypeWithdrawal, ""},
	"ACH_DEBIT":       {model.TypePayment, "ACH Debit"},
	"BILLPAY":         {model.TypePayment, "Bills"},
	"CHECK_PAID":      {model.TypePayment, "Check"},
	"DEBIT_CARD":      {model.TypePayment, "Card"},
	"FEE_TRANSACTION": {model.TypePayment, "Fees"},
	"LOAN_PMT":        {model.TypePayment, "Loan"},
	"QUICKPAY_DEBIT":  {model.TypePayment, "Zelle"},
	"WIRE_OUTGOING":   {model.TypePayment, "Wire"},
}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and classifies every row. Amounts finer than a
// cent, and rows whose Details column contradicts the amount's sign, fail
// the whole statement.
func (p *ChaseParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.BankTransaction
	refs := make(map[string]int)
	for i, rec := range records[1:] {
		txn, err := parseChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		refs[txn.Reference]++
		if n := refs[txn.Reference]; n > 1 {
			txn.Reference += "_" + strconv.Itoa(n)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseChaseRow(rec []string) (model.BankTransaction, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}
	if !model.WholeCents(amount) {
		return model.BankTransaction{}, fmt.Errorf("amount %s: %w", rec[chaseColAmount], model.ErrInvalidAmount)
	}

	switch details := strings.ToUpper(rec[chaseColDetails]); {
	case (details == "DEBIT" || details == "CHECK") && amount.IsPositive(),
		(details == "CREDIT" || details == "DSLIP") && amount.IsNegative():
		return model.BankTransaction{}, fmt.Errorf("%s row with amount %s", details, amount.StringFixed(2))
	}

	code := strings.ToUpper(strings.TrimSpace(rec[chaseColType]))
	desc := strings.TrimSpace(rec[chaseColDesc])
	c := classifyChase(code, amount)

	return model.BankTransaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   makeChaseRef(date, desc),
		BankCode:    code,
		Kind:        c.kind,
		Category:    c.category,
	}, nil
}

func classifyChase(code string, amount decimal.Decimal) classification {
	switch {
	case amount.IsPositive():
		return classification{kind: model.TypeDeposit}
	case amount.IsNegative():
		if c, ok := chaseOutflows[code]; ok {
			return c
		}
		return classification{kind: model.TypePayment, category: CategoryImported}
	default:
		return classification{}
	}
}

// makeChaseRef creates a reference like chase_20250103_GITHUBPROS.
func makeChaseRef(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("chase_%s_%s", date.Format("20060102"), prefix)
}
