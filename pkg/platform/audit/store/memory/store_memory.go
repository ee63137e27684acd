package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "altanbank/pkg/platform/audit"
)

// Store is an in-memory audit store for unit tests. It records every appended
// event and exposes the same outbox view the relay consumes in production.
type Store struct {
	mu        sync.Mutex
	events    []audit.Event
	rows      []row
	published map[uuid.UUID]bool
}

type row struct {
	id      uuid.UUID
	event   audit.Event
	payload []byte
}

func New() *Store {
	return &Store{published: make(map[uuid.UUID]bool)}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(map[string]string{
		"action":       string(event.Action),
		"aggregate_id": event.AggregateID,
		"amount":       event.Amount,
	})
	if err != nil {
		return err
	}
	s.events = append(s.events, event)
	s.rows = append(s.rows, row{id: uuid.New(), event: event, payload: payload})
	return nil
}

// Events returns a copy of everything appended so far.
func (s *Store) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) Pending(_ context.Context, limit int) ([]audit.OutboxRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []audit.OutboxRow
	for _, r := range s.rows {
		if s.published[r.id] {
			continue
		}
		pending = append(pending, audit.OutboxRow{
			ID:          r.id,
			AggregateID: r.event.AggregateID,
			EventType:   string(r.event.Action),
			Payload:     r.payload,
		})
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.published[id] = true
	}
	return nil
}
