package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// so services can translate them into coded domain errors without the store
// layer knowing the taxonomy.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: a uniqueness constraint (bank code, idempotency key) lost the race
// - ErrInvalidState: record is in the wrong lifecycle state for the mutation
// - ErrInsufficientFunds: a debit would push a balance below zero
// - ErrUnavailable: backing service temporarily unreachable
//
// For input validation use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnavailable       = errors.New("unavailable")
)
