package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

func draft(agg AggregateType, aggID string, evt EventType, payload any) OutboxDraft {
	body, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   aggID,
		EventType:     evt,
		PartitionKey:  aggID,
		Headers:       json.RawMessage(`{}`),
		Payload:       body,
		OccurredAt:    time.Now(),
	}
}

// NewLedgerEntryPostedEvent creates the standard event for a ledger entry.
func NewLedgerEntryPostedEvent(entry *LedgerEntry) OutboxDraft {
	return draft(AggregateLedger, entry.AccountID.String(), EventLedgerEntryPosted, entry)
}

// NewAccountCreatedEvent creates an account lifecycle event.
func NewAccountCreatedEvent(accountID uuid.UUID, username string, role Role) OutboxDraft {
	return draft(AggregateAccount, accountID.String(), EventAccountCreated, map[string]string{
		"account_id": accountID.String(),
		"username":   username,
		"role":       string(role),
	})
}

// NewWagerPlacedEvent creates a wager placement event. The commitment is
// published here; the server seed never is.
func NewWagerPlacedEvent(w *Wager) OutboxDraft {
	return draft(AggregateWager, w.AccountID.String(), EventWagerPlaced, map[string]any{
		"wager_id":   w.ID.String(),
		"account_id": w.AccountID.String(),
		"game":       string(w.Game),
		"stake":      w.Stake,
		"commitment": w.Commitment,
	})
}

// NewWagerSettledEvent creates a wager settlement event.
func NewWagerSettledEvent(w *Wager) OutboxDraft {
	return draft(AggregateWager, w.AccountID.String(), EventWagerSettled, map[string]any{
		"wager_id":   w.ID.String(),
		"account_id": w.AccountID.String(),
		"game":       string(w.Game),
		"stake":      w.Stake,
		"status":     string(w.Status),
		"payout":     w.Payout,
		"profit":     w.Profit,
	})
}

// NewRoleChangedEvent creates a role transition event.
func NewRoleChangedEvent(actorID, targetID uuid.UUID, from, to Role) OutboxDraft {
	return draft(AggregateAccount, targetID.String(), EventRoleChanged, map[string]string{
		"actor_id":  actorID.String(),
		"target_id": targetID.String(),
		"from":      string(from),
		"to":        string(to),
	})
}

// NewBanChangedEvent creates a ban flag event.
func NewBanChangedEvent(actorID, targetID uuid.UUID, banned bool, reason string) OutboxDraft {
	return draft(AggregateAccount, targetID.String(), EventBanChanged, map[string]any{
		"actor_id":  actorID.String(),
		"target_id": targetID.String(),
		"banned":    banned,
		"reason":    reason,
	})
}

// NewOwnershipTransferredEvent references both sides of the swap.
func NewOwnershipTransferredEvent(previousOwner, newOwner uuid.UUID) OutboxDraft {
	return draft(AggregateAccount, newOwner.String(), EventOwnershipTransferred, map[string]string{
		"previous_owner_id": previousOwner.String(),
		"new_owner_id":      newOwner.String(),
	})
}

// NewLimitBreachedEvent creates a wager limit breach event.
func NewLimitBreachedEvent(accountID uuid.UUID, limitType string, limitValue, requestedAmount int64) OutboxDraft {
	return draft(AggregateAccount, accountID.String(), EventLimitBreached, map[string]any{
		"account_id":       accountID.String(),
		"limit_type":       limitType,
		"limit_value":      limitValue,
		"requested_amount": requestedAmount,
	})
}

// NewSessionEvent creates a session lifecycle event.
func NewSessionEvent(accountID uuid.UUID, created bool, riskLevel string) OutboxDraft {
	evt := EventSessionCreated
	if !created {
		evt = EventSessionRevoked
	}
	return draft(AggregateSession, accountID.String(), evt, map[string]string{
		"account_id": accountID.String(),
		"risk_level": riskLevel,
	})
}
