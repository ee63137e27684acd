package store

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"altanbank/internal/ledger/models"
	"altanbank/pkg/domain"
	"altanbank/pkg/platform/sentinel"
)

// MemoryStore keeps correspondent accounts in process. The caller's unit of
// work serializes mutations; the store's own mutex only guards map access for
// concurrent reads.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[domain.CorrAccountID]*models.CorrAccount
	byRef    map[domain.AccountRef]domain.CorrAccountID
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[domain.CorrAccountID]*models.CorrAccount),
		byRef:    make(map[domain.AccountRef]domain.CorrAccountID),
	}
}

func (s *MemoryStore) Create(_ context.Context, account *models.CorrAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byRef[account.AccountRef]; exists {
		return sentinel.ErrConflict
	}
	copied := *account
	s.accounts[account.ID] = &copied
	s.byRef[account.AccountRef] = account.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.CorrAccountID) (*models.CorrAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

// Resolve is the ledger's resolution capability for the opaque account
// reference other modules carry.
func (s *MemoryStore) Resolve(ctx context.Context, ref domain.AccountRef) (*models.CorrAccount, error) {
	s.mu.RLock()
	id, ok := s.byRef[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *MemoryStore) List(_ context.Context) ([]*models.CorrAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.CorrAccount, 0, len(s.accounts))
	for _, account := range s.accounts {
		copied := *account
		out = append(out, &copied)
	}
	return out, nil
}

func (s *MemoryStore) Credit(ctx context.Context, id domain.CorrAccountID, amount decimal.Decimal) (*models.CorrAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	account.Balance = account.Balance.Add(amount)
	copied := *account
	return &copied, nil
}

func (s *MemoryStore) Debit(ctx context.Context, id domain.CorrAccountID, amount decimal.Decimal) (*models.CorrAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if account.Balance.LessThan(amount) {
		return nil, sentinel.ErrInsufficientFunds
	}
	account.Balance = account.Balance.Sub(amount)
	copied := *account
	return &copied, nil
}

// TotalBalance sums every account balance; the circulating-supply read model.
func (s *MemoryStore) TotalBalance(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, account := range s.accounts {
		total = total.Add(account.Balance)
	}
	return total, nil
}

// Count returns the number of accounts.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}
