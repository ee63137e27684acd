package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxRow is one undelivered event as stored for relay.
type OutboxRow struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
}

// OutboxStore is the relay's view of the outbox: fetch pending rows, mark
// them delivered. The postgres audit store implements it; the memory store
// implements it for relay tests.
type OutboxStore interface {
	Pending(ctx context.Context, limit int) ([]OutboxRow, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error
}
