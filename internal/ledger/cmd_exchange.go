package ledger

import (
	"context"
	"fmt"

	"github.com/gemcade/platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ExecuteExchange converts crystals to gems in one entry. The caller prices
// the conversion from site settings; this command only checks the crystals
// cover the debit and that both legs are positive.
func (e *Engine) ExecuteExchange(ctx context.Context, tx pgx.Tx, params domain.ExchangeParams) (*domain.CommandResult, error) {
	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("exchange: %w", err)
	}
	if account.Banned {
		return nil, domain.ErrAccountBanned()
	}

	if params.Crystals <= 0 || params.Gems <= 0 {
		return nil, domain.ErrValidation("exchange amounts must be positive")
	}
	if int64(account.Crystals) < params.Crystals {
		return nil, domain.ErrInsufficientBalance()
	}

	meta := mergeMeta(params.Metadata, map[string]interface{}{
		"crystalsSpent": params.Crystals,
		"gemsReceived":  params.Gems,
	})

	entry, updatedAccount, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		AccountID: params.AccountID,
		Type:      domain.EntryExchange,
		Update:    domain.BalanceUpdate{Gems: params.Gems, Crystals: -params.Crystals},
		Metadata:  meta,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange post: %w", err)
	}

	return &domain.CommandResult{
		Entry:   entry,
		Account: updatedAccount,
		Events:  []domain.OutboxDraft{domain.NewLedgerEntryPostedEvent(entry)},
	}, nil
}
