package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/securebank/securebank/internal/ledger"
	"github.com/securebank/securebank/internal/model"
)

// CategoryImported marks payments whose bank code has no category of its own.
const CategoryImported = "Imported"

// Poster is the part of the ledger a replay posts through.
type Poster interface {
	Deposit(ctx context.Context, p ledger.DepositParams) (model.Transaction, error)
	Withdraw(ctx context.Context, p ledger.WithdrawParams) (model.Transaction, error)
	Payment(ctx context.Context, p ledger.PaymentParams) (model.Transaction, error)
}

// Skipped is a statement row the ledger rejected.
type Skipped struct {
	Line int // 1-based data row, header excluded
	Row  model.BankTransaction
	Err  error
}

// Report summarizes a replay.
type Report struct {
	Posted  []model.Transaction
	Skipped []Skipped
}

// Replay posts each row against accountID in file order as the operation
// its Kind names. Rows the ledger rejects, and unclassified rows, are
// recorded and the replay continues.
func Replay(ctx context.Context, poster Poster, accountID string, rows []model.BankTransaction) (Report, error) {
	var report Report
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		txn, err := replayRow(ctx, poster, accountID, row)
		if err != nil {
			report.Skipped = append(report.Skipped, Skipped{Line: i + 1, Row: row, Err: err})
			continue
		}
		report.Posted = append(report.Posted, txn)
	}
	return report, nil
}

func replayRow(ctx context.Context, poster Poster, accountID string, row model.BankTransaction) (model.Transaction, error) {
	switch row.Kind {
	case model.TypeDeposit:
		return poster.Deposit(ctx, ledger.DepositParams{
			AccountID:    accountID,
			Amount:       row.Amount,
			Description:  row.Description,
			MerchantName: row.Description,
		})
	case model.TypeWithdrawal:
		return poster.Withdraw(ctx, ledger.WithdrawParams{
			AccountID:   accountID,
			Amount:      row.Amount.Neg(),
			Description: row.Description,
		})
	case model.TypePayment:
		return poster.Payment(ctx, ledger.PaymentParams{
			AccountID:    accountID,
			Amount:       row.Amount.Neg(),
			Description:  row.Description,
			MerchantName: row.Description,
			Category:     row.Category,
		})
	default:
		return model.Transaction{}, fmt.Errorf("%s row %q amount %s: %w", row.BankCode, row.Description, row.Amount.StringFixed(2), model.ErrInvalidAmount)
	}
}

// ImportFile parses r with the named format and replays it.
func ImportFile(ctx context.Context, reg *Registry, format string, r io.Reader, poster Poster, accountID string) (Report, error) {
	p, err := reg.Lookup(format)
	if err != nil {
		return Report{}, err
	}
	rows, err := p.Parse(r)
	if err != nil {
		return Report{}, fmt.Errorf("parsing %s statement: %w", p.Format(), err)
	}
	return Replay(ctx, poster, accountID, rows)
}
