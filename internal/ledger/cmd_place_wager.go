package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gemcade/platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecutePlaceWager deducts the stake from the account's gems balance and
// records the wager_stake entry. Checks run in a fixed order so the caller
// always sees the highest-precedence failure: banned before bad input, bad
// input before insufficient balance.
func (e *Engine) ExecutePlaceWager(ctx context.Context, tx pgx.Tx, params domain.PlaceWagerParams) (*domain.CommandResult, error) {
	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("place wager: %w", err)
	}
	if account.Banned {
		return nil, domain.ErrAccountBanned()
	}

	if params.Stake <= 0 {
		return nil, domain.ErrValidation("stake must be positive")
	}
	if !params.Game.Valid() {
		return nil, domain.ErrValidation("unknown game")
	}

	if params.IdempotencyKey != "" {
		existing, err := e.FindExistingEntry(ctx, tx, params.AccountID, params.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &domain.CommandResult{Entry: existing, Account: account, Idempotent: true}, nil
		}
	}

	if int64(account.Gems) < params.Stake {
		return nil, domain.ErrInsufficientBalance()
	}

	meta := mergeMeta(params.Metadata, map[string]interface{}{
		"game":    string(params.Game),
		"wagerId": params.WagerID.String(),
	})

	wagerID := params.WagerID
	entry, updatedAccount, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		AccountID:      params.AccountID,
		Type:           domain.EntryWagerStake,
		Update:         domain.BalanceUpdate{Gems: -params.Stake},
		WagerID:        &wagerID,
		IdempotencyKey: strPtr(params.IdempotencyKey),
		Metadata:       meta,
	})
	if err != nil {
		return nil, fmt.Errorf("place wager post: %w", err)
	}

	return &domain.CommandResult{
		Entry:   entry,
		Account: updatedAccount,
		Events:  []domain.OutboxDraft{domain.NewLedgerEntryPostedEvent(entry)},
	}, nil
}

func mergeMeta(base json.RawMessage, extra map[string]interface{}) json.RawMessage {
	merged := make(map[string]interface{})
	if len(base) > 0 {
		_ = json.Unmarshal(base, &merged)
	}
	for k, v := range extra {
		merged[k] = v
	}
	out, _ := json.Marshal(merged)
	return out
}
