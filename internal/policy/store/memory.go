package store

import (
	"context"
	"sync"

	"altanbank/internal/policy/models"
	"altanbank/pkg/platform/sentinel"
)

// MemoryStore keeps policy versions and change entries in process. Used by
// unit tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	policies []*models.MonetaryPolicy
	changes  []models.PolicyChange
}

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// Seed installs the genesis policy. Production gets this row from migrations.
func (s *MemoryStore) Seed(policy *models.MonetaryPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *policy
	p.IsActive = true
	s.policies = append(s.policies, &p)
}

func (s *MemoryStore) Active(_ context.Context) (*models.MonetaryPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.policies {
		if p.IsActive {
			copied := *p
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) Supersede(_ context.Context, next *models.MonetaryPolicy, changes []models.PolicyChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.policies {
		p.IsActive = false
	}
	copied := *next
	copied.IsActive = true
	s.policies = append(s.policies, &copied)
	s.changes = append(s.changes, changes...)
	return nil
}

func (s *MemoryStore) History(_ context.Context, limit int) ([]models.PolicyChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PolicyChange, 0, limit)
	for i := len(s.changes) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.changes[i])
	}
	return out, nil
}

// ActiveCount reports how many rows are flagged active; tests assert it is
// always exactly one.
func (s *MemoryStore) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.policies {
		if p.IsActive {
			count++
		}
	}
	return count
}
