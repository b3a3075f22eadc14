package model

import "github.com/shopspring/decimal"

// WholeCents reports whether d has no precision below one cent.
func WholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// ValidAmount reports whether d is usable as a ledger operation amount:
// strictly positive and in whole cents.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && WholeCents(d)
}
