package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gemcade/platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecuteAdminAdjust applies a manual balance correction. Deltas may be
// negative but never drive a balance below zero. The actor and reason land
// in the entry metadata so the ledger alone explains the change.
func (e *Engine) ExecuteAdminAdjust(ctx context.Context, tx pgx.Tx, params domain.AdminAdjustParams) (*domain.CommandResult, error) {
	if params.Gems == 0 && params.Crystals == 0 {
		return nil, domain.ErrValidation("adjustment must change something")
	}
	if params.Reason == "" {
		return nil, domain.ErrValidation("adjustment reason is required")
	}

	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("admin adjust: %w", err)
	}

	if int64(account.Gems)+params.Gems < 0 || int64(account.Crystals)+params.Crystals < 0 {
		return nil, domain.ErrInsufficientBalance()
	}

	meta := mergeMeta(params.Metadata, map[string]interface{}{
		"actorId": params.ActorID.String(),
		"reason":  params.Reason,
	})

	entry, updatedAccount, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		AccountID: params.AccountID,
		Type:      domain.EntryAdminAdjust,
		Update:    domain.BalanceUpdate{Gems: params.Gems, Crystals: params.Crystals},
		Metadata:  meta,
	})
	if err != nil {
		return nil, fmt.Errorf("admin adjust post: %w", err)
	}

	return &domain.CommandResult{
		Entry:   entry,
		Account: updatedAccount,
		Events:  []domain.OutboxDraft{domain.NewLedgerEntryPostedEvent(entry)},
	}, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ensureJSON(data json.RawMessage) json.RawMessage {
	if data == nil {
		return json.RawMessage(`{}`)
	}
	return data
}
