package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/securebank/securebank/internal/model"
)

// MemoryStore keeps all state in process memory behind a single mutex.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	order    []string // account IDs in insertion order
	txns     []model.Transaction
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*model.Account)}
}

// ListAccounts returns the user's accounts in creation order.
func (s *MemoryStore) ListAccounts(_ context.Context, userID string) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Account{}
	for _, id := range s.order {
		if a := s.accounts[id]; a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

// GetAccount returns a copy of the account.
func (s *MemoryStore) GetAccount(_ context.Context, id string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, notFound(id)
	}
	return *a, nil
}

// InsertAccount adds a new account. IDs must be unique.
func (s *MemoryStore) InsertAccount(_ context.Context, acct model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acct.ID]; ok {
		return fmt.Errorf("account %s already exists", acct.ID)
	}
	cp := acct
	s.accounts[acct.ID] = &cp
	s.order = append(s.order, acct.ID)
	return nil
}

// SetActive sets the active flag.
func (s *MemoryStore) SetActive(_ context.Context, id string, active bool) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, notFound(id)
	}
	a.Active = active
	return *a, nil
}

// AdjustBalance adds delta to the balance unconditionally.
func (s *MemoryStore) AdjustBalance(_ context.Context, id string, delta decimal.Decimal) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, notFound(id)
	}
	a.Balance = a.Balance.Add(delta)
	return *a, nil
}

// Post applies a posting atomically.
func (s *MemoryStore) Post(_ context.Context, p Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, adj := range p.Adjustments {
		if _, ok := s.accounts[adj.AccountID]; !ok {
			return notFound(adj.AccountID)
		}
	}

	// Stage new balances so a later failing debit leaves nothing applied.
	staged := make(map[string]decimal.Decimal, len(p.Adjustments))
	for _, adj := range p.Adjustments {
		bal, ok := staged[adj.AccountID]
		if !ok {
			bal = s.accounts[adj.AccountID].Balance
		}
		bal = bal.Add(adj.Delta)
		if adj.Delta.IsNegative() && bal.IsNegative() {
			return insufficient(adj.AccountID)
		}
		staged[adj.AccountID] = bal
	}

	for id, bal := range staged {
		s.accounts[id].Balance = bal
	}
	s.txns = append(s.txns, p.Transactions...)
	return nil
}

// TransactionsByAccount returns the account's records newest first, ties
// broken by most recently appended.
func (s *MemoryStore) TransactionsByAccount(_ context.Context, accountID string, offset, limit int) ([]model.Transaction, error) {
	s.mu.Lock()
	var matched []model.Transaction
	for i := len(s.txns) - 1; i >= 0; i-- {
		if s.txns[i].AccountID == accountID {
			matched = append(matched, s.txns[i])
		}
	}
	s.mu.Unlock()

	// matched is already newest-appended first; a stable sort keeps that order for equal timestamps.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	return window(matched, offset, limit), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func window(txns []model.Transaction, offset, limit int) []model.Transaction {
	if offset < 0 || offset >= len(txns) {
		return []model.Transaction{}
	}
	end := len(txns)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return txns[offset:end]
}
