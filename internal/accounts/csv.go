package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/model"
)

const (
	numFields    = 7
	colID        = 0
	colNumber    = 1
	colType      = 2
	colBalance   = 3
	colActive    = 4
	colCreatedAt = 5
	colUserID    = 6
)

var header = []string{"account_id", "account_number", "account_type", "balance", "active", "created_at", "user_id"}

// ReadAccounts reads an accounts CSV export.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts as CSV with a header row.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colNumber] = acct.AccountNumber
	row[colType] = string(acct.Type)
	row[colBalance] = acct.Balance.StringFixed(2)
	row[colActive] = strconv.FormatBool(acct.Active)
	row[colCreatedAt] = acct.CreatedAt.UTC().Format(time.RFC3339)
	row[colUserID] = acct.UserID
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	typ, err := model.ParseAccountType(record[colType])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_type: %w", err)
	}

	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}

	active, err := strconv.ParseBool(record[colActive])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
	}

	created, err := time.Parse(time.RFC3339, record[colCreatedAt])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing created_at %q: %w", record[colCreatedAt], err)
	}

	return model.Account{
		ID:            record[colID],
		AccountNumber: record[colNumber],
		Type:          typ,
		Balance:       balance,
		Active:        active,
		CreatedAt:     created,
		UserID:        record[colUserID],
	}, nil
}
