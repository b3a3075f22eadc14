// Package ledger records deposits, withdrawals, transfers, and payments
// against accounts and serves per-account history.
package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/events"
	"github.com/securebank/securebank/internal/id"
	"github.com/securebank/securebank/internal/logging"
	"github.com/securebank/securebank/internal/model"
	"github.com/securebank/securebank/internal/store"
)

// Service provides business logic for the transaction ledger.
type Service struct {
	store     store.Store
	publisher events.Publisher
	logger    *pterm.Logger

	// Now stamps new transactions.
	Now func() time.Time
}

// NewService creates a ledger Service. A nil publisher disables events and
// a nil logger discards log output.
func NewService(st store.Store, publisher events.Publisher, logger *pterm.Logger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		store:     st,
		publisher: publisher,
		logger:    logger,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Page selects a window of history: records [Number*Size, Number*Size+Size).
type Page struct {
	Number int
	Size   int
}

// Validate rejects negative page numbers, non-positive sizes, and pages
// whose first record offset does not fit in an int.
func (p Page) Validate() error {
	if p.Number < 0 || p.Size <= 0 || p.Number > math.MaxInt/p.Size {
		return fmt.Errorf("page %d size %d: %w", p.Number, p.Size, model.ErrInvalidPage)
	}
	return nil
}

// ListByAccount returns the account's transactions newest first. A nil page
// returns the full history. Unknown accounts have an empty history.
func (s *Service) ListByAccount(ctx context.Context, accountID string, page *Page) ([]model.Transaction, error) {
	offset, limit := 0, 0
	if page != nil {
		if err := page.Validate(); err != nil {
			return nil, err
		}
		offset, limit = page.Number*page.Size, page.Size
	}
	txns, err := s.store.TransactionsByAccount(ctx, accountID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for %s: %w", accountID, err)
	}
	return txns, nil
}

// DepositParams holds parameters for a deposit.
type DepositParams struct {
	AccountID    string
	Amount       decimal.Decimal
	Description  string
	MerchantName string
}

// Deposit credits the account and records a DEPOSIT.
func (s *Service) Deposit(ctx context.Context, p DepositParams) (model.Transaction, error) {
	if err := checkAmount(p.Amount); err != nil {
		return model.Transaction{}, err
	}

	txn := s.newTransaction(model.TypeDeposit, p.AccountID, p.Amount)
	txn.Description = p.Description
	txn.Category = model.CategoryIncome
	txn.MerchantName = p.MerchantName

	posted, err := s.post(ctx, []model.Transaction{txn}, []store.Adjustment{
		{AccountID: p.AccountID, Delta: p.Amount},
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return posted[0], nil
}

// WithdrawParams holds parameters for a withdrawal.
type WithdrawParams struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
}

// Withdraw debits the account and records a WITHDRAWAL. The balance may
// reach zero but never go below it.
func (s *Service) Withdraw(ctx context.Context, p WithdrawParams) (model.Transaction, error) {
	if err := checkAmount(p.Amount); err != nil {
		return model.Transaction{}, err
	}

	txn := s.newTransaction(model.TypeWithdrawal, p.AccountID, p.Amount.Neg())
	txn.Description = p.Description
	txn.Category = model.CategoryWithdrawal

	posted, err := s.post(ctx, []model.Transaction{txn}, []store.Adjustment{
		{AccountID: p.AccountID, Delta: p.Amount.Neg()},
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return posted[0], nil
}

// TransferParams holds parameters for a transfer between two accounts.
type TransferParams struct {
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Description          string
}

// Transfer moves funds between two accounts. It records a debit leg on the
// source and a credit leg on the destination under one reference group and
// returns the debit leg.
func (s *Service) Transfer(ctx context.Context, p TransferParams) (model.Transaction, error) {
	if err := checkAmount(p.Amount); err != nil {
		return model.Transaction{}, err
	}
	if p.SourceAccountID == p.DestinationAccountID {
		return model.Transaction{}, fmt.Errorf("transfer %s: %w", p.SourceAccountID, model.ErrSameAccount)
	}

	ref := id.NewReference()

	debit := s.newTransaction(model.TypeTransfer, p.SourceAccountID, p.Amount.Neg())
	debit.Reference = id.FormatLegReference(ref, 0)
	debit.Description = p.Description
	debit.Category = model.CategoryTransfer
	debit.DestinationAccountID = p.DestinationAccountID

	credit := s.newTransaction(model.TypeTransfer, p.DestinationAccountID, p.Amount)
	credit.Reference = id.FormatLegReference(ref, 1)
	credit.Timestamp = debit.Timestamp
	credit.Description = p.Description
	credit.Category = model.CategoryTransfer
	credit.SourceAccountID = p.SourceAccountID

	posted, err := s.post(ctx, []model.Transaction{debit, credit}, []store.Adjustment{
		{AccountID: p.SourceAccountID, Delta: p.Amount.Neg()},
		{AccountID: p.DestinationAccountID, Delta: p.Amount},
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return posted[0], nil
}

// PaymentParams holds parameters for a merchant payment.
type PaymentParams struct {
	AccountID    string
	Amount       decimal.Decimal
	Description  string
	MerchantName string
	Category     string
}

// Payment debits the account and records a PAYMENT. Category defaults to
// "Payment".
func (s *Service) Payment(ctx context.Context, p PaymentParams) (model.Transaction, error) {
	if err := checkAmount(p.Amount); err != nil {
		return model.Transaction{}, err
	}

	txn := s.newTransaction(model.TypePayment, p.AccountID, p.Amount.Neg())
	txn.Description = p.Description
	txn.MerchantName = p.MerchantName
	txn.Category = p.Category
	if txn.Category == "" {
		txn.Category = model.CategoryPayment
	}

	posted, err := s.post(ctx, []model.Transaction{txn}, []store.Adjustment{
		{AccountID: p.AccountID, Delta: p.Amount.Neg()},
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return posted[0], nil
}

func checkAmount(amount decimal.Decimal) error {
	if !model.ValidAmount(amount) {
		return fmt.Errorf("amount %s: %w", amount, model.ErrInvalidAmount)
	}
	return nil
}

func (s *Service) newTransaction(typ model.TransactionType, accountID string, amount decimal.Decimal) model.Transaction {
	return model.Transaction{
		ID:        id.New(),
		Reference: id.NewReference(),
		Type:      typ,
		Amount:    amount,
		Timestamp: s.Now(),
		Status:    model.StatusPending,
		AccountID: accountID,
	}
}

// post completes the pending transactions and hands them to the store in one
// posting. On rejection the transactions are marked failed and not stored.
func (s *Service) post(ctx context.Context, pending []model.Transaction, adjs []store.Adjustment) ([]model.Transaction, error) {
	completed := make([]model.Transaction, len(pending))
	for i, txn := range pending {
		if err := txn.Transition(model.StatusCompleted); err != nil {
			return nil, err
		}
		completed[i] = txn
	}

	if err := s.store.Post(ctx, store.Posting{Transactions: completed, Adjustments: adjs}); err != nil {
		for i := range pending {
			_ = pending[i].Transition(model.StatusFailed)
			s.logger.Debug("transaction failed", s.logger.Args(
				"reference", pending[i].Reference,
				"type", pending[i].Type,
				"account", pending[i].AccountID,
				"status", pending[i].Status,
				"error", err.Error(),
			))
		}
		return nil, fmt.Errorf("%s %s: %w", pending[0].Type, id.ReferenceGroup(pending[0].Reference), err)
	}

	for _, txn := range completed {
		s.logger.Debug("transaction posted", s.logger.Args(
			"reference", txn.Reference,
			"type", txn.Type,
			"account", txn.AccountID,
			"amount", txn.Amount.StringFixed(2),
		))
		if err := s.publisher.Publish(ctx, txn); err != nil {
			s.logger.Warn("publishing transaction event", s.logger.Args(
				"reference", txn.Reference,
				"error", err.Error(),
			))
		}
	}
	return completed, nil
}
