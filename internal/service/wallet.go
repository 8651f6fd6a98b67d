package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/ledger"
	"github.com/gemcade/platform/internal/projection"
	"github.com/gemcade/platform/internal/repository"
	"github.com/gemcade/platform/internal/settlement"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// winsFeedMinPayout filters dust wins out of the public feed.
const winsFeedMinPayout = 100

// WalletService handles balances, rewards, the exchange and the public
// read feeds.
type WalletService struct {
	pool     *pgxpool.Pool
	accounts repository.AccountRepository
	wagers   repository.WagerRepository
	entries  repository.LedgerRepository
	settings repository.SettingsRepository
	engine   *ledger.Engine
	rewards  *settlement.RewardSettlement
	store    projection.Store
	logger   *slog.Logger
}

// NewWalletService creates a WalletService.
func NewWalletService(
	pool *pgxpool.Pool,
	accounts repository.AccountRepository,
	wagers repository.WagerRepository,
	entries repository.LedgerRepository,
	settings repository.SettingsRepository,
	engine *ledger.Engine,
	rewards *settlement.RewardSettlement,
	store projection.Store,
	logger *slog.Logger,
) *WalletService {
	return &WalletService{
		pool:     pool,
		accounts: accounts,
		wagers:   wagers,
		entries:  entries,
		settings: settings,
		engine:   engine,
		rewards:  rewards,
		store:    store,
		logger:   logger,
	}
}

// ClaimResult is the daily reward claim response. A blocked claim is a
// normal 200 with Claimed false and the gate that stopped it.
type ClaimResult struct {
	Claimed  bool                   `json:"claimed"`
	Gate     *settlement.GateResult `json:"gate"`
	Gems     int64                  `json:"gems,omitempty"`
	Crystals int64                  `json:"crystals,omitempty"`
	Balance  *domain.Balances       `json:"balance,omitempty"`
}

// ClaimDaily evaluates the reward gates under the account row lock and
// credits the daily reward when all pass.
func (s *WalletService) ClaimDaily(ctx context.Context, accountID uuid.UUID) (*ClaimResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	account, err := s.engine.LockAccountForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	settings, err := LoadSiteSettings(ctx, tx, s.settings)
	if err != nil {
		return nil, err
	}

	var lastAt *time.Time
	last, err := s.entries.LastByType(ctx, tx, accountID, domain.EntryDailyReward)
	if err != nil {
		return nil, domain.ErrInternal("last reward query", err)
	}
	if last != nil {
		lastAt = &last.CreatedAt
	}

	spent, err := s.entries.DailySumByType(ctx, tx, domain.EntryDailyReward)
	if err != nil {
		return nil, domain.ErrInternal("reward budget query", err)
	}

	gate, result, err := s.rewards.EvaluateAndCreditDaily(ctx, tx, account, settings, lastAt, spent)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if !gate.AllPassed {
		return &ClaimResult{Claimed: false, Gate: gate}, nil
	}
	return &ClaimResult{
		Claimed:  true,
		Gate:     gate,
		Gems:     settings.DailyRewardGems,
		Crystals: settings.DailyRewardCrystals,
		Balance:  &result.Account.Balances,
	}, nil
}

// ExchangeResult is the crystals-to-gems conversion response.
type ExchangeResult struct {
	CrystalsSpent int64            `json:"crystals_spent"`
	GemsReceived  int64            `json:"gems_received"`
	Rate          int64            `json:"rate"`
	Balance       *domain.Balances `json:"balance"`
}

// Exchange converts crystals to gems at the configured rate. The gem
// amount rounds down; crystals short of a whole gem stay untouched.
func (s *WalletService) Exchange(ctx context.Context, accountID uuid.UUID, crystals int64) (*ExchangeResult, error) {
	if crystals <= 0 {
		return nil, domain.ErrValidation("crystals must be positive")
	}

	settings, err := LoadSiteSettings(ctx, s.pool, s.settings)
	if err != nil {
		return nil, err
	}
	rate := settings.ExchangeRate
	gems := crystals / rate
	if gems == 0 {
		return nil, domain.ErrValidation(fmt.Sprintf("exchange needs at least %d crystals", rate))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.engine.ExecuteExchange(ctx, tx, domain.ExchangeParams{
		AccountID: accountID,
		Crystals:  gems * rate,
		Gems:      gems,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	return &ExchangeResult{
		CrystalsSpent: gems * rate,
		GemsReceived:  gems,
		Rate:          rate,
		Balance:       &result.Account.Balances,
	}, nil
}

// History returns an account's ledger entries, newest first.
func (s *WalletService) History(ctx context.Context, accountID uuid.UUID, cursor *string, limit int) ([]domain.LedgerEntry, error) {
	list, err := s.entries.ListByAccount(ctx, s.pool, accountID, cursor, limit)
	if err != nil {
		return nil, domain.ErrInternal("list ledger entries", err)
	}
	return list, nil
}

// Leaderboard returns the top accounts by gems or xp, served from a short
// lived snapshot so the ranking query does not run per request.
func (s *WalletService) Leaderboard(ctx context.Context, orderBy string, limit int) (*projection.LeaderboardSnapshot, error) {
	switch orderBy {
	case "":
		orderBy = "gems"
	case "gems", "xp":
	default:
		return nil, domain.ErrValidation("order must be gems or xp")
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	if snap, err := projection.GetLeaderboard(ctx, s.store, orderBy, limit); err == nil {
		return snap, nil
	}

	accounts, err := s.accounts.Leaderboard(ctx, s.pool, orderBy, limit)
	if err != nil {
		return nil, domain.ErrInternal("leaderboard query", err)
	}
	snap := projection.LeaderboardSnapshot{
		OrderedBy: orderBy,
		Limit:     limit,
		Rows:      make([]projection.LeaderboardRow, 0, len(accounts)),
	}
	for _, a := range accounts {
		snap.Rows = append(snap.Rows, projection.LeaderboardRow{
			Username: a.Username,
			Gems:     int64(a.Gems),
			XP:       int64(a.XP),
			Level:    a.Level(),
		})
	}
	if err := projection.UpdateLeaderboard(ctx, s.store, snap); err != nil {
		s.logger.Warn("leaderboard snapshot update failed", "error", err)
	}
	snap.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return &snap, nil
}

// WinsFeed returns recent wins above the dust threshold, served from a
// short-lived snapshot.
func (s *WalletService) WinsFeed(ctx context.Context, limit int) (*projection.WinsFeedSnapshot, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	if snap, err := projection.GetWinsFeed(ctx, s.store, limit); err == nil {
		return snap, nil
	}

	wins, err := s.wagers.ListRecentWins(ctx, s.pool, winsFeedMinPayout, limit)
	if err != nil {
		return nil, domain.ErrInternal("wins feed query", err)
	}
	snap := projection.WinsFeedSnapshot{Limit: limit, Wins: wins}
	if err := projection.UpdateWinsFeed(ctx, s.store, snap); err != nil {
		s.logger.Warn("wins feed snapshot update failed", "error", err)
	}
	snap.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return &snap, nil
}
