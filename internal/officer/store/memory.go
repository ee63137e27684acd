package store

import (
	"context"
	"sort"
	"sync"

	"altanbank/internal/officer/models"
	"altanbank/pkg/domain"
	"altanbank/pkg/platform/sentinel"
)

// MemoryStore holds the officer directory in memory for tests and local
// development.
type MemoryStore struct {
	mu       sync.RWMutex
	officers map[domain.OfficerID]*models.CentralBankOfficer
}

func NewMemory() *MemoryStore {
	return &MemoryStore{officers: make(map[domain.OfficerID]*models.CentralBankOfficer)}
}

// Seed adds a directory entry.
func (s *MemoryStore) Seed(officer *models.CentralBankOfficer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *officer
	s.officers[officer.ID] = &clone
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.OfficerID) (*models.CentralBankOfficer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	officer, ok := s.officers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *officer
	return &clone, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.CentralBankOfficer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.CentralBankOfficer, 0, len(s.officers))
	for _, officer := range s.officers {
		clone := *officer
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
