package store

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"altanbank/internal/emission/models"
	"altanbank/pkg/domain"
	"altanbank/pkg/platform/sentinel"
)

// MemoryStore keeps emission records and ledger transactions in memory for
// unit tests and local development. Writes run inside the shared memory unit
// of work, which serializes the whole validate-then-mutate sequence.
type MemoryStore struct {
	mu           sync.RWMutex
	emissions    []*models.EmissionRecord
	transactions []*models.LedgerTransaction
}

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// LockDay is a no-op: the memory unit of work already linearizes every
// mutating operation through one mutex.
func (s *MemoryStore) LockDay(_ context.Context, _ time.Time) error {
	return nil
}

func (s *MemoryStore) AppendEmission(_ context.Context, record *models.EmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	s.emissions = append(s.emissions, &clone)
	return nil
}

func (s *MemoryStore) AppendTransaction(_ context.Context, tx *models.LedgerTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *tx
	s.transactions = append(s.transactions, &clone)
	return nil
}

// FindEmission returns a record by id, or sentinel.ErrNotFound.
func (s *MemoryStore) FindEmission(_ context.Context, id domain.EmissionID) (*models.EmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.emissions {
		if record.ID == id {
			clone := *record
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindTransaction returns a ledger transaction by id, or sentinel.ErrNotFound.
func (s *MemoryStore) FindTransaction(_ context.Context, id domain.TransactionID) (*models.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range s.transactions {
		if tx.ID == id {
			clone := *tx
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// NetMintedBetween sums COMPLETED mints minus COMPLETED burns with createdAt
// in the half-open window [start, end).
func (s *MemoryStore) NetMintedBetween(_ context.Context, start, end time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	net := decimal.Zero
	for _, record := range s.emissions {
		if record.Status != models.StatusCompleted {
			continue
		}
		if record.CreatedAt.Before(start) || !record.CreatedAt.Before(end) {
			continue
		}
		switch record.Type {
		case models.TypeMint:
			net = net.Add(record.Amount)
		case models.TypeBurn:
			net = net.Sub(record.Amount)
		}
	}
	return net, nil
}

// Totals returns all-time COMPLETED mint and burn sums.
func (s *MemoryStore) Totals(_ context.Context) (minted, burned decimal.Decimal, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	minted, burned = decimal.Zero, decimal.Zero
	for _, record := range s.emissions {
		if record.Status != models.StatusCompleted {
			continue
		}
		switch record.Type {
		case models.TypeMint:
			minted = minted.Add(record.Amount)
		case models.TypeBurn:
			burned = burned.Add(record.Amount)
		}
	}
	return minted, burned, nil
}

// ListEmissions returns up to limit records, newest first.
func (s *MemoryStore) ListEmissions(_ context.Context, limit int) ([]*models.EmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.EmissionRecord, 0, limit)
	for i := len(s.emissions) - 1; i >= 0 && len(out) < limit; i-- {
		clone := *s.emissions[i]
		out = append(out, &clone)
	}
	return out, nil
}

// ListTransactions returns up to limit transactions, newest first.
func (s *MemoryStore) ListTransactions(_ context.Context, limit int) ([]*models.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.LedgerTransaction, 0, limit)
	for i := len(s.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		clone := *s.transactions[i]
		out = append(out, &clone)
	}
	return out, nil
}

// LastEmissionAt returns the createdAt of the most recent emission record,
// or nil when none exist.
func (s *MemoryStore) LastEmissionAt(_ context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.emissions) == 0 {
		return nil, nil
	}
	last := s.emissions[len(s.emissions)-1].CreatedAt
	return &last, nil
}
