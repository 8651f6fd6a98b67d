package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntryType enumerates ledger entry types.
type EntryType string

const (
	EntryWagerStake        EntryType = "wager_stake"
	EntryWagerPayout       EntryType = "wager_payout"
	EntryRegistrationBonus EntryType = "registration_bonus"
	EntryDailyReward       EntryType = "daily_reward"
	EntryTransferBonus     EntryType = "transfer_bonus"
	EntryExchange          EntryType = "exchange"
	EntryAdminAdjust       EntryType = "admin_adjust"
)

// LedgerEntry is one append-only row of the balance ledger. GemsAfter and
// CrystalsAfter snapshot the account row as committed with this entry.
type LedgerEntry struct {
	ID             uuid.UUID       `json:"id"`
	AccountID      uuid.UUID       `json:"account_id"`
	Type           EntryType       `json:"type"`
	Gems           Amount          `json:"gems"`
	Crystals       Amount          `json:"crystals"`
	GemsAfter      Amount          `json:"gems_after"`
	CrystalsAfter  Amount          `json:"crystals_after"`
	WagerID        *uuid.UUID      `json:"wager_id,omitempty"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BalanceUpdate describes which account columns change and by how much.
// Used by PostLedgerEntry to build the dynamic UPDATE statement.
type BalanceUpdate struct {
	Gems     int64 // delta for gems column
	Crystals int64 // delta for crystals column
	XP       int64 // delta for xp column
}

// HasGemsDelta reports whether the gems balance changes.
func (u BalanceUpdate) HasGemsDelta() bool { return u.Gems != 0 }

// HasCrystalsDelta reports whether the crystals balance changes.
func (u BalanceUpdate) HasCrystalsDelta() bool { return u.Crystals != 0 }

// HasXPDelta reports whether experience changes.
func (u BalanceUpdate) HasXPDelta() bool { return u.XP != 0 }

// PostLedgerEntryParams is the input to the atomic PostLedgerEntry operation.
type PostLedgerEntryParams struct {
	AccountID      uuid.UUID
	Type           EntryType
	Update         BalanceUpdate
	WagerID        *uuid.UUID
	IdempotencyKey *string
	Metadata       json.RawMessage
}

// CommandResult is the return value from all ledger commands.
type CommandResult struct {
	Entry      *LedgerEntry
	Account    *Account
	Events     []OutboxDraft
	Idempotent bool // true if this was a duplicate that returned an existing entry
}

// PlaceWagerParams holds the input for ExecutePlaceWager.
type PlaceWagerParams struct {
	AccountID      uuid.UUID
	WagerID        uuid.UUID
	Game           Game
	Stake          int64
	IdempotencyKey string
	Metadata       json.RawMessage
}

// SettleWagerParams holds the input for ExecuteSettleWager. Payout is the
// gross amount returned to the account; zero marks a loss settlement.
type SettleWagerParams struct {
	AccountID uuid.UUID
	WagerID   uuid.UUID
	Game      Game
	Stake     int64
	Payout    int64
	Metadata  json.RawMessage
}

// GrantRewardParams holds the input for ExecuteGrantReward.
type GrantRewardParams struct {
	AccountID      uuid.UUID
	Type           EntryType
	Gems           int64
	Crystals       int64
	IdempotencyKey string
	Metadata       json.RawMessage
}

// ExchangeParams holds the input for ExecuteExchange (crystals to gems).
type ExchangeParams struct {
	AccountID uuid.UUID
	Crystals  int64
	Gems      int64
	Metadata  json.RawMessage
}

// AdminAdjustParams holds the input for ExecuteAdminAdjust.
type AdminAdjustParams struct {
	AccountID uuid.UUID
	ActorID   uuid.UUID
	Gems      int64
	Crystals  int64
	Reason    string
	Metadata  json.RawMessage
}
