package ledger

import (
	"context"
	"fmt"

	"github.com/gemcade/platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecuteSettleWager posts the settlement entry for a wager. Payout is the
// gross amount credited back; a loss settles with payout 0 and the entry
// still lands so the ledger shows every settlement. Experience accrues on
// settlement, one point per gem staked, win or lose.
//
// The caller flips the wager row to its terminal status before invoking
// this; the status guard there makes double settlement post nothing here.
func (e *Engine) ExecuteSettleWager(ctx context.Context, tx pgx.Tx, params domain.SettleWagerParams) (*domain.CommandResult, error) {
	if params.Payout < 0 {
		return nil, domain.ErrValidation("payout must not be negative")
	}
	if params.Stake <= 0 {
		return nil, domain.ErrValidation("stake must be positive")
	}

	if _, err := e.LockAccountForUpdate(ctx, tx, params.AccountID); err != nil {
		return nil, fmt.Errorf("settle wager: %w", err)
	}

	result := "lost"
	if params.Payout > 0 {
		result = "won"
	}
	meta := mergeMeta(params.Metadata, map[string]interface{}{
		"game":    string(params.Game),
		"wagerId": params.WagerID.String(),
		"result":  result,
	})

	wagerID := params.WagerID
	entry, updatedAccount, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		AccountID: params.AccountID,
		Type:      domain.EntryWagerPayout,
		Update:    domain.BalanceUpdate{Gems: params.Payout, XP: params.Stake},
		WagerID:   &wagerID,
		Metadata:  meta,
	})
	if err != nil {
		return nil, fmt.Errorf("settle wager post: %w", err)
	}

	return &domain.CommandResult{
		Entry:   entry,
		Account: updatedAccount,
		Events:  []domain.OutboxDraft{domain.NewLedgerEntryPostedEvent(entry)},
	}, nil
}
