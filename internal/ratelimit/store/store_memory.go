package store

import (
	"context"
	"sync"
	"time"

	"altanbank/internal/ratelimit/models"
)

// MemoryStore is a sliding-window counter kept in process memory. It is not
// distributed; multi-instance deployments use the Redis store.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	timestamps []time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window)}
}

// Allow records one request against key and reports whether it fits inside
// limit requests per duration.
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, duration time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w, ok := s.windows[key]
	if !ok {
		w = &window{}
		s.windows[key] = w
	}

	cutoff := now.Add(-duration)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept

	if len(w.timestamps) >= limit {
		resetAt := w.timestamps[0].Add(duration)
		return &models.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: int(time.Until(resetAt).Seconds()) + 1,
		}, nil
	}

	w.timestamps = append(w.timestamps, now)
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(duration),
	}, nil
}
