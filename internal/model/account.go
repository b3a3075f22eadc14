package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies customer accounts.
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeCredit   AccountType = "CREDIT"
)

// AccountTypes lists every supported account type in display order.
var AccountTypes = []AccountType{AccountTypeChecking, AccountTypeSavings, AccountTypeCredit}

// ParseAccountType accepts any casing of a supported type name.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AccountTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidAccountType)
}

// Account is a customer account held by the account store.
type Account struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	Type          AccountType     `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
	UserID        string          `json:"userId"`
}
