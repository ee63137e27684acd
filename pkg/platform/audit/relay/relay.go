// Package relay drains the transactional outbox into Kafka. Delivery is
// at-least-once: rows are marked published only after the producer confirms,
// so a crash between produce and mark causes a duplicate, never a loss.
// Consumers must dedupe on event id.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "altanbank/pkg/platform/audit"
	"altanbank/pkg/platform/circuit"
)

// Topic carries every ledger event. Partitioning keys on aggregate id so
// events for one license/account/policy stay ordered.
const Topic = "centralbank.ledger-events"

const (
	defaultBatchSize    = 100
	defaultPollInterval = time.Second
)

// Producer is the slice of kgo.Client the relay needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Relay periodically publishes pending outbox rows. A circuit breaker around
// the producer stops it hammering a down broker; rows simply accumulate in
// the outbox until the broker recovers.
type Relay struct {
	store    audit.OutboxStore
	producer Producer
	breaker  *circuit.Breaker
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// Option configures the Relay.
type Option func(*Relay)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		r.interval = d
	}
}

// WithBatchSize overrides the per-poll row limit.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		r.batch = n
	}
}

func New(store audit.OutboxStore, producer Producer, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		store:    store,
		producer: producer,
		breaker:  circuit.New("kafka-producer"),
		logger:   logger,
		interval: defaultPollInterval,
		batch:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls the outbox until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of pending rows and marks the delivered ones.
// While the breaker is open only a single probe row is sent per poll.
func (r *Relay) Drain(ctx context.Context) error {
	limit := r.batch
	if r.breaker.IsOpen() {
		limit = 1
	}

	pending, err := r.store.Pending(ctx, limit)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(pending))
	byRecord := make(map[*kgo.Record]audit.OutboxRow, len(pending))
	for _, row := range pending {
		rec := &kgo.Record{
			Topic: Topic,
			Key:   []byte(row.AggregateID),
			Value: row.Payload,
		}
		records = append(records, rec)
		byRecord[rec] = row
	}

	results := r.producer.ProduceSync(ctx, records...)

	// Mark only rows whose produce succeeded; the rest are retried next poll.
	// Results are keyed by record because completion order is not input order.
	ids := make([]uuid.UUID, 0, len(pending))
	failed := false
	for _, res := range results {
		row, ok := byRecord[res.Record]
		if !ok {
			continue
		}
		if res.Err != nil {
			failed = true
			r.logger.WarnContext(ctx, "produce failed, row will be retried",
				"event_type", row.EventType,
				"error", res.Err,
			)
			continue
		}
		ids = append(ids, row.ID)
	}

	if failed {
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.WarnContext(ctx, "kafka producer circuit opened, throttling outbox relay")
		}
	} else {
		if _, change := r.breaker.RecordSuccess(); change.Closed {
			r.logger.InfoContext(ctx, "kafka producer circuit closed, resuming full batches")
		}
	}

	if len(ids) == 0 {
		return nil
	}
	return r.store.MarkPublished(ctx, ids, time.Now().UTC())
}
