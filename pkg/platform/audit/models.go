// Package audit defines the append-only ledger event trail. Events are
// written to the outbox table inside the same transaction as the mutation
// they describe and relayed to Kafka by the outbox relay. Kafka consumers
// (settlement mirror, analytics) get at-least-once delivery with per-aggregate
// ordering.
package audit

import (
	"context"
	"time"

	"altanbank/pkg/domain"
)

// AuditEvent names a ledger event type.
type AuditEvent string

const (
	// License events
	EventLicenseIssued      AuditEvent = "license_issued"
	EventLicenseSuspended   AuditEvent = "license_suspended"
	EventLicenseReactivated AuditEvent = "license_reactivated"
	EventLicenseRevoked     AuditEvent = "license_revoked"

	// Emission events
	EventAltanMinted AuditEvent = "altan_minted"
	EventAltanBurned AuditEvent = "altan_burned"

	// Transfer events
	EventInterbankTransfer AuditEvent = "interbank_transfer"

	// Policy events
	EventPolicyUpdated AuditEvent = "policy_updated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action    AuditEvent
	Timestamp time.Time
	OfficerID domain.OfficerID
	// AggregateType/AggregateID identify the record the event is about
	// (license, corr_account, policy). Kafka partitioning keys on AggregateID
	// so events for one aggregate stay ordered.
	AggregateType string
	AggregateID   string
	// Amount is the decimal text of the monetary amount, if any.
	Amount string
	// Reference carries the opaque account reference(s) involved.
	Reference string
	Reason    string
	RequestID string
}

// Store persists events for relay. The postgres implementation writes to the
// outbox table through the transaction in context, so an event commits with
// the mutation it describes or not at all.
type Store interface {
	Append(ctx context.Context, event Event) error
}
