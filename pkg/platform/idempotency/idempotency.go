// Package idempotency guards mint, burn and transfer against double-apply on
// retried requests. A key is reserved before the unit of work and bound to
// the resulting record id after commit; a retry with the same key gets the
// original record back instead of a second mutation.
package idempotency

import (
	"context"
	"time"
)

// pending marks a reserved key whose operation has not committed yet.
const pending = "__pending__"

// Outcome of a reservation attempt.
type Outcome int

const (
	// Reserved: the key is new, the caller owns it and must Complete or
	// Release it.
	Reserved Outcome = iota
	// Replayed: the key was completed earlier; RecordID holds the original.
	Replayed
	// InFlight: another request holds the key and has not committed.
	InFlight
)

// Reservation is the result of Reserve.
type Reservation struct {
	Outcome  Outcome
	RecordID string
}

// Store reserves and resolves idempotency keys.
type Store interface {
	// Reserve claims the key for ttl. Exactly one concurrent caller gets
	// Outcome Reserved.
	Reserve(ctx context.Context, key string, ttl time.Duration) (Reservation, error)
	// Complete binds the committed record id to the key.
	Complete(ctx context.Context, key, recordID string, ttl time.Duration) error
	// Release frees the key after a failed unit of work so the caller can
	// retry.
	Release(ctx context.Context, key string) error
}
