package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/model"
)

// Header is the CSV header for statement exports.
const Header = "reference,timestamp,type,amount,description,category,merchant,status,account_id,destination_account_id,source_account_id"

const (
	numFields = 11
	colRef    = 0
	colTime   = 1
	colType   = 2
	colAmount = 3
	colDesc   = 4
	colCat    = 5
	colMerch  = 6
	colStatus = 7
	colAcctID = 8
	colDestID = 9
	colSrcID  = 10
)

// WriteStatement writes transactions as CSV with a header row.
func WriteStatement(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadStatement reads a statement written by WriteStatement.
func ReadStatement(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(txn model.Transaction) []string {
	row := make([]string, numFields)
	row[colRef] = txn.Reference
	row[colTime] = txn.Timestamp.UTC().Format(time.RFC3339Nano)
	row[colType] = string(txn.Type)
	row[colAmount] = txn.Amount.StringFixed(2)
	row[colDesc] = txn.Description
	row[colCat] = txn.Category
	row[colMerch] = txn.MerchantName
	row[colStatus] = string(txn.Status)
	row[colAcctID] = txn.AccountID
	row[colDestID] = txn.DestinationAccountID
	row[colSrcID] = txn.SourceAccountID
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction. The record ID is
// not part of a statement and is left empty.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339Nano, record[colTime])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return model.Transaction{
		Reference:            record[colRef],
		Type:                 model.TransactionType(record[colType]),
		Amount:               amount,
		Description:          record[colDesc],
		Category:             record[colCat],
		MerchantName:         record[colMerch],
		Timestamp:            ts,
		Status:               model.TransactionStatus(record[colStatus]),
		AccountID:            record[colAcctID],
		DestinationAccountID: record[colDestID],
		SourceAccountID:      record[colSrcID],
	}, nil
}
