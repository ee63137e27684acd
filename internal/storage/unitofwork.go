// Package storage defines the unit-of-work boundary every balance-mutating
// operation runs inside. A mint is one unit: limit check, credit, emission
// record, ledger transaction, outbox row. Either all of it commits or none.
package storage

import (
	"context"
	"sync"
)

// Tx runs fn inside one atomic unit of work. Implementations guarantee that
// store calls made with the callback's context are applied atomically and
// that concurrent units are serialized enough that a validate-then-mutate
// sequence cannot interleave with another unit's writes.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MemoryTx serializes units of work through a single mutex. With the memory
// stores this gives the same linearization the Postgres implementation gets
// from serializable transactions plus the day-row lock.
//
// Rollback is not simulated: memory stores are only used in tests, and tests
// assert that services validate before mutating.
type MemoryTx struct {
	mu sync.Mutex
}

func NewMemoryTx() *MemoryTx {
	return &MemoryTx{}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
