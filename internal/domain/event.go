package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventAccountCreated       EventType = "casino.account.created"
	EventSessionCreated       EventType = "casino.session.created"
	EventSessionRevoked       EventType = "casino.session.revoked"
	EventLedgerEntryPosted    EventType = "casino.ledger.entry.posted"
	EventWagerPlaced          EventType = "casino.wager.placed"
	EventWagerSettled         EventType = "casino.wager.settled"
	EventRewardGranted        EventType = "casino.reward.granted"
	EventRoleChanged          EventType = "casino.account.role.changed"
	EventBanChanged           EventType = "casino.account.ban.changed"
	EventOwnershipTransferred EventType = "casino.ownership.transferred"
	EventLimitBreached        EventType = "casino.limit.breached"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateAccount AggregateType = "account"
	AggregateSession AggregateType = "session"
	AggregateWager   AggregateType = "wager"
	AggregateLedger  AggregateType = "ledger"
)

// OutboxDraft is the payload written to the event_outbox table inside the
// same transaction as the state change it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}
