package store

import (
	"context"
	"sort"
	"sync"

	"altanbank/internal/license/models"
	"altanbank/pkg/domain"
	"altanbank/pkg/platform/sentinel"
)

// MemoryStore keeps licenses in process for unit tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	licenses map[domain.LicenseID]*models.BankLicense
}

func NewMemory() *MemoryStore {
	return &MemoryStore{licenses: make(map[domain.LicenseID]*models.BankLicense)}
}

// CreateIfCodeAvailable inserts the license unless a non-revoked license
// already holds the bank code.
func (s *MemoryStore) CreateIfCodeAvailable(_ context.Context, license *models.BankLicense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.licenses {
		if existing.BankCode == license.BankCode && existing.Status != models.StatusRevoked {
			return sentinel.ErrConflict
		}
	}
	copied := *license
	s.licenses[license.ID] = &copied
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.LicenseID) (*models.BankLicense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	license, ok := s.licenses[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *license
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.BankLicense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.BankLicense, 0, len(s.licenses))
	for _, license := range s.licenses {
		copied := *license
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out, nil
}

// Execute atomically validates and mutates one license. The lock is held
// across both callbacks so no concurrent transition can interleave.
func (s *MemoryStore) Execute(
	_ context.Context,
	id domain.LicenseID,
	validate func(*models.BankLicense) error,
	mutate func(*models.BankLicense),
) (*models.BankLicense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	license, ok := s.licenses[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(license); err != nil {
		return nil, err
	}
	mutate(license)
	copied := *license
	return &copied, nil
}

// CountActive returns the number of non-revoked licenses.
func (s *MemoryStore) CountActive(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, license := range s.licenses {
		if license.Status != models.StatusRevoked {
			count++
		}
	}
	return count, nil
}
