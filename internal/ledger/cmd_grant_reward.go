package ledger

import (
	"context"
	"fmt"

	"github.com/gemcade/platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecuteGrantReward credits a non-wager grant: registration bonus, daily
// reward, or the ownership transfer bonus. Grants are idempotent on the
// caller's key so a retried registration or double-claimed daily reward
// credits once.
func (e *Engine) ExecuteGrantReward(ctx context.Context, tx pgx.Tx, params domain.GrantRewardParams) (*domain.CommandResult, error) {
	switch params.Type {
	case domain.EntryRegistrationBonus, domain.EntryDailyReward, domain.EntryTransferBonus:
	default:
		return nil, domain.ErrValidation(fmt.Sprintf("entry type %q is not a reward", params.Type))
	}
	if params.Gems < 0 || params.Crystals < 0 {
		return nil, domain.ErrValidation("reward amounts must not be negative")
	}
	if params.Gems == 0 && params.Crystals == 0 {
		return nil, domain.ErrValidation("reward must credit something")
	}

	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("grant reward: %w", err)
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

	entry, updatedAccount, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		AccountID:      params.AccountID,
		Type:           params.Type,
		Update:         domain.BalanceUpdate{Gems: params.Gems, Crystals: params.Crystals},
		IdempotencyKey: strPtr(params.IdempotencyKey),
		Metadata:       ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("grant reward post: %w", err)
	}

	return &domain.CommandResult{
		Entry:   entry,
		Account: updatedAccount,
		Events:  []domain.OutboxDraft{domain.NewLedgerEntryPostedEvent(entry)},
	}, nil
}
