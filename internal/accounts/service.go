package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/id"
	"github.com/securebank/securebank/internal/model"
	"github.com/securebank/securebank/internal/store"
)

// Service is the account store: lookup, creation, activation, and raw
// balance adjustment over a store.Store.
type Service struct {
	store         store.Store
	defaultUserID string

	// Now returns the creation time for new accounts.
	Now func() time.Time
}

// NewService creates a Service. defaultUserID owns accounts created
// without an explicit user.
func NewService(st store.Store, defaultUserID string) *Service {
	return &Service{
		store:         st,
		defaultUserID: defaultUserID,
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateParams describes a new account.
type CreateParams struct {
	UserID string
	Type   model.AccountType
}

// List returns all accounts owned by userID, oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]model.Account, error) {
	if userID == "" {
		userID = s.defaultUserID
	}
	accts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accts, nil
}

// Get returns an account by ID.
func (s *Service) Get(ctx context.Context, accountID string) (model.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// Create opens a new active account with a zero balance.
func (s *Service) Create(ctx context.Context, p CreateParams) (model.Account, error) {
	typ, err := model.ParseAccountType(string(p.Type))
	if err != nil {
		return model.Account{}, err
	}
	userID := p.UserID
	if userID == "" {
		userID = s.defaultUserID
	}

	acct := model.Account{
		ID:            id.New(),
		AccountNumber: id.NewAccountNumber(),
		Type:          typ,
		Balance:       decimal.Zero,
		Active:        true,
		CreatedAt:     s.Now(),
		UserID:        userID,
	}
	if err := s.store.InsertAccount(ctx, acct); err != nil {
		return model.Account{}, fmt.Errorf("creating account: %w", err)
	}
	return acct, nil
}

// SetActive sets the account's active flag and returns the updated record.
func (s *Service) SetActive(ctx context.Context, accountID string, active bool) (model.Account, error) {
	return s.store.SetActive(ctx, accountID, active)
}

// Activate marks the account active.
func (s *Service) Activate(ctx context.Context, accountID string) (model.Account, error) {
	return s.SetActive(ctx, accountID, true)
}

// Deactivate marks the account inactive.
func (s *Service) Deactivate(ctx context.Context, accountID string) (model.Account, error) {
	return s.SetActive(ctx, accountID, false)
}

// AdjustBalance adds delta to the balance with no floor check. Callers that
// need overdraft protection go through the ledger instead.
func (s *Service) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) (model.Account, error) {
	if !model.WholeCents(delta) {
		return model.Account{}, fmt.Errorf("delta %s: %w", delta, model.ErrInvalidAmount)
	}
	return s.store.AdjustBalance(ctx, accountID, delta)
}

// Seed inserts accounts that do not exist yet, together with the history
// records that belong to them. Existing IDs and their records are left alone,
// so seeding twice is harmless. It returns the number of accounts inserted.
//
// History is appended as-is without touching balances: each account's
// Balance must already equal the sum of its records.
func (s *Service) Seed(ctx context.Context, accts []model.Account, history []model.Transaction) (int, error) {
	inserted := make(map[string]bool, len(accts))
	for _, acct := range accts {
		_, err := s.store.GetAccount(ctx, acct.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return len(inserted), fmt.Errorf("checking account %s: %w", acct.ID, err)
		}
		if err := s.store.InsertAccount(ctx, acct); err != nil {
			return len(inserted), fmt.Errorf("seeding account %s: %w", acct.ID, err)
		}
		inserted[acct.ID] = true
	}

	var records []model.Transaction
	for _, txn := range history {
		if inserted[txn.AccountID] {
			records = append(records, txn)
		}
	}
	if len(records) > 0 {
		if err := s.store.Post(ctx, store.Posting{Transactions: records}); err != nil {
			return len(inserted), fmt.Errorf("seeding history: %w", err)
		}
	}
	return len(inserted), nil
}

// Load seeds the accounts in an accounts CSV export. Accounts arrive
// without history.
func (s *Service) Load(ctx context.Context, r io.Reader) (int, error) {
	accts, err := ReadAccounts(r)
	if err != nil {
		return 0, fmt.Errorf("loading accounts: %w", err)
	}
	return s.Seed(ctx, accts, nil)
}

// Export writes the user's accounts as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer, userID string) error {
	accts, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	if err := WriteAccounts(w, accts); err != nil {
		return fmt.Errorf("exporting accounts: %w", err)
	}
	return nil
}
