package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/id"
	"github.com/securebank/securebank/internal/model"
)

// Checks performed by ValidateTransactions and Reconcile.
const (
	CheckAccount   = "account"
	CheckStatus    = "status"
	CheckSign      = "sign"
	CheckPrecision = "precision"
	CheckReference = "reference"
	CheckBalance   = "balance"
)

// ValidationError describes a single ledger inconsistency.
type ValidationError struct {
	Check       string
	Reference   string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Check, e.Reference, e.Description)
}

// ValidateTransactions checks the stored history of one account.
func ValidateTransactions(txns []model.Transaction, accountID string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(txns))

	for _, txn := range txns {
		if txn.AccountID != accountID {
			errs = append(errs, ValidationError{
				Check:       CheckAccount,
				Reference:   txn.Reference,
				Description: fmt.Sprintf("record belongs to account %s", txn.AccountID),
			})
		}

		if txn.Status != model.StatusCompleted {
			errs = append(errs, ValidationError{
				Check:       CheckStatus,
				Reference:   txn.Reference,
				Description: fmt.Sprintf("stored with status %s", txn.Status),
			})
		}

		if !txn.SignMatchesType() {
			errs = append(errs, ValidationError{
				Check:       CheckSign,
				Reference:   txn.Reference,
				Description: fmt.Sprintf("amount %s has the wrong sign for %s", txn.Amount.StringFixed(2), txn.Type),
			})
		}

		if !model.WholeCents(txn.Amount) {
			errs = append(errs, ValidationError{
				Check:       CheckPrecision,
				Reference:   txn.Reference,
				Description: fmt.Sprintf("amount %s has more than 2 decimal places", txn.Amount),
			})
		}

		_, leg, err := id.ParseReference(txn.Reference)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{
				Check:       CheckReference,
				Reference:   txn.Reference,
				Description: err.Error(),
			})
		case seen[txn.Reference]:
			errs = append(errs, ValidationError{
				Check:       CheckReference,
				Reference:   txn.Reference,
				Description: "duplicate reference",
			})
		case (txn.Type == model.TypeTransfer) != (leg >= 0):
			errs = append(errs, ValidationError{
				Check:       CheckReference,
				Reference:   txn.Reference,
				Description: "only transfer legs carry a leg suffix",
			})
		}
		seen[txn.Reference] = true
	}
	return errs
}

// Reconciliation is the result of replaying an account's history.
type Reconciliation struct {
	Account  model.Account
	Opening  decimal.Decimal
	Net      decimal.Decimal // sum of signed amounts
	Expected decimal.Decimal // Opening + Net
	Records  int
	Errors   []ValidationError
}

// OK reports whether the history is consistent with the stored balance.
func (r Reconciliation) OK() bool {
	return len(r.Errors) == 0
}

// Reconcile replays the full history of accountID on top of opening and
// compares the result with the stored balance.
func (s *Service) Reconcile(ctx context.Context, accountID string, opening decimal.Decimal) (Reconciliation, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return Reconciliation{}, err
	}
	txns, err := s.ListByAccount(ctx, accountID, nil)
	if err != nil {
		return Reconciliation{}, err
	}

	net := decimal.Zero
	for _, txn := range txns {
		net = net.Add(txn.Amount)
	}

	r := Reconciliation{
		Account:  acct,
		Opening:  opening,
		Net:      net,
		Expected: opening.Add(net),
		Records:  len(txns),
		Errors:   ValidateTransactions(txns, accountID),
	}
	if !r.Expected.Equal(acct.Balance) {
		r.Errors = append(r.Errors, ValidationError{
			Check:       CheckBalance,
			Reference:   accountID,
			Description: fmt.Sprintf("opening %s + history %s = %s, stored balance is %s", opening.StringFixed(2), net.StringFixed(2), r.Expected.StringFixed(2), acct.Balance.StringFixed(2)),
		})
	}
	return r, nil
}
