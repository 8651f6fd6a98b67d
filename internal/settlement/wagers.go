package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/ledger"
	"github.com/gemcade/platform/internal/repository"
	"github.com/jackc/pgx/v5"
)

// WagerSettlement closes open wagers. Every game path funnels through
// Settle: mines cashouts and mine hits, plinko drops, crash cashouts and
// busts. The wager row flips first so its status guard serializes double
// settlement attempts; the ledger entry and the wager.settled event ride
// the same transaction.
type WagerSettlement struct {
	engine *ledger.Engine
	wagers repository.WagerRepository
	outbox repository.OutboxRepository
}

// NewWagerSettlement creates a wager settlement handler.
func NewWagerSettlement(engine *ledger.Engine, wagers repository.WagerRepository, outbox repository.OutboxRepository) *WagerSettlement {
	return &WagerSettlement{engine: engine, wagers: wagers, outbox: outbox}
}

// Settle flips the wager to won or lost, credits the payout and awards
// experience. Payout 0 settles a loss. The wager struct is updated in
// place so the caller can serialize it, server seed now included.
func (s *WagerSettlement) Settle(ctx context.Context, tx pgx.Tx, wager *domain.Wager, payout int64, outcome json.RawMessage) (*domain.CommandResult, error) {
	if payout < 0 {
		return nil, domain.ErrValidation("payout must not be negative")
	}

	status := domain.WagerLost
	if payout > 0 {
		status = domain.WagerWon
	}
	profit := payout - int64(wager.Stake)
	now := time.Now().UTC()

	settled, err := s.wagers.Settle(ctx, tx, wager.ID, status, payout, profit, outcome, now)
	if err != nil {
		return nil, fmt.Errorf("settle wager row: %w", err)
	}
	if !settled {
		return nil, domain.ErrAlreadySettled(wager.ID.String())
	}

	result, err := s.engine.ExecuteSettleWager(ctx, tx, domain.SettleWagerParams{
		AccountID: wager.AccountID,
		WagerID:   wager.ID,
		Game:      wager.Game,
		Stake:     int64(wager.Stake),
		Payout:    payout,
	})
	if err != nil {
		return nil, err
	}

	wager.Status = status
	wager.Payout = domain.Amount(payout)
	wager.Profit = domain.Amount(profit)
	wager.Outcome = outcome
	wager.SettledAt = &now

	event := domain.NewWagerSettledEvent(wager)
	if err := s.outbox.Insert(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("insert settled event: %w", err)
	}
	result.Events = append(result.Events, event)

	return result, nil
}
