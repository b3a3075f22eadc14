package model

import "errors"

var (
	// ErrNotFound is returned for an unknown account ID.
	ErrNotFound = errors.New("account not found")
	// ErrInvalidAmount is returned for zero, negative, or sub-cent amounts.
	ErrInvalidAmount = errors.New("amount must be positive with at most 2 decimal places")
	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrSameAccount is returned when a transfer's source equals its destination.
	ErrSameAccount = errors.New("source and destination accounts cannot be the same")
	// ErrInvalidAccountType is returned for an account type outside AccountTypes.
	ErrInvalidAccountType = errors.New("invalid account type")
	// ErrInvalidPage is returned for a negative page number or non-positive page size.
	ErrInvalidPage = errors.New("invalid page")
	// ErrInvalidTransition is returned for an illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)
