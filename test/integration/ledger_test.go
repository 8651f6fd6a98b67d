//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/ledger"
	"github.com/gemcade/platform/internal/repository"
	"github.com/gemcade/platform/test/integration/testutil"
)

func newHarness(env *testutil.TestEnv) *ledger.ReplayHarness {
	engine := ledger.NewEngine(
		repository.NewAccountRepository(),
		repository.NewLedgerRepository(),
		repository.NewOutboxRepository(),
	)
	return ledger.NewReplayHarness(engine, env.Pool, repository.NewLedgerRepository())
}

// ─── Replay Harness Tests (3) ───────────────────────────────────────────────

func TestReplay_CommandSequenceHoldsInvariants(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, accountID := env.SeedAccount("replay_rex", domain.RoleUser, 0, 0)
	harness := newHarness(env)

	wagerID := uuid.New()
	commands := []ledger.ReplayCommand{
		{Type: "grant_reward", Params: domain.GrantRewardParams{
			Type:           domain.EntryRegistrationBonus,
			Gems:           1000,
			Crystals:       50,
			IdempotencyKey: "replay-grant-1",
		}},
		{Type: "place_wager", Params: domain.PlaceWagerParams{
			WagerID:        wagerID,
			Game:           domain.GameMines,
			Stake:          200,
			IdempotencyKey: "replay-wager-1",
		}},
		{Type: "settle_wager", Params: domain.SettleWagerParams{
			WagerID: wagerID,
			Game:    domain.GameMines,
			Stake:   200,
			Payout:  400,
		}},
		{Type: "exchange", Params: domain.ExchangeParams{
			Crystals: 20,
			Gems:     2,
		}},
		{Type: "admin_adjust", Params: domain.AdminAdjustParams{
			ActorID: accountID,
			Gems:    25,
			Reason:  "replay audit",
		}},
	}

	result, err := harness.Execute(context.Background(), accountID, commands)
	require.NoError(t, err)

	assert.True(t, result.AllPassed)
	assert.Equal(t, 5, result.EntryCount)
	assert.Equal(t, domain.Amount(1227), result.FinalBalances.Gems)
	assert.Equal(t, domain.Amount(30), result.FinalBalances.Crystals)
	assert.Equal(t, domain.Amount(200), result.FinalBalances.XP)

	// The counters the harness reports must match what actually landed.
	assert.Equal(t, result.EntryCount, testutil.CountLedgerEntries(t, env, accountID))
	assert.Equal(t, result.OutboxCount, testutil.CountOutboxEvents(t, env, accountID.String()))

	require.Len(t, result.Invariants, 4)
	for _, inv := range result.Invariants {
		assert.True(t, inv.Passed, "invariant %s failed: %s", inv.Name, inv.Detail)
	}
	testutil.AssertBalance(t, env, accountID, 1227, 30)
}

func TestReplay_DuplicateGrantIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, accountID := env.SeedAccount("replay_rhonda", domain.RoleUser, 0, 0)
	harness := newHarness(env)

	grant := ledger.ReplayCommand{Type: "grant_reward", Params: domain.GrantRewardParams{
		Type:           domain.EntryDailyReward,
		Gems:           250,
		Crystals:       10,
		IdempotencyKey: "daily-2026-08-22",
	}}

	result, err := harness.Execute(context.Background(), accountID, []ledger.ReplayCommand{grant, grant})
	require.NoError(t, err)

	assert.True(t, result.AllPassed)
	assert.Equal(t, 1, result.EntryCount)
	assert.Equal(t, 1, result.OutboxCount)
	assert.Equal(t, domain.Amount(250), result.FinalBalances.Gems)
	assert.Equal(t, domain.Amount(10), result.FinalBalances.Crystals)
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, env, accountID))
}

func TestReplay_RejectsOverdraft(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, accountID := env.SeedAccount("replay_broke", domain.RoleUser, 0, 0)
	harness := newHarness(env)

	commands := []ledger.ReplayCommand{
		{Type: "place_wager", Params: domain.PlaceWagerParams{
			WagerID: uuid.New(),
			Game:    domain.GameMines,
			Stake:   500,
		}},
	}

	_, err := harness.Execute(context.Background(), accountID, commands)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replay command 0 (place_wager)")

	// The failed command's transaction rolled back; nothing landed.
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, env, accountID))
	testutil.AssertBalance(t, env, accountID, 0, 0)
}

// ─── Snapshot Chain Tests (1) ───────────────────────────────────────────────

// Every entry stores the post-update balance snapshot. Replaying the deltas
// in order must reproduce each snapshot, and the last snapshot must match
// the account row. This is the audit property the ledger exists for.
func TestLedger_SnapshotsChainOverAPI(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, accountID := env.RegisterAccount("chain_carl", "securepass123")

	daily := env.AuthPOST("/me/daily", nil, token)
	daily.Body.Close()
	require.Equal(t, http.StatusOK, daily.StatusCode)

	exchange := env.AuthPOST("/me/exchange", map[string]interface{}{"crystals": 30}, token)
	exchange.Body.Close()
	require.Equal(t, http.StatusOK, exchange.StatusCode)

	rows, err := env.Pool.Query(context.Background(), `
		SELECT gems::bigint, crystals::bigint, gems_after::bigint, crystals_after::bigint
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at ASC, id ASC`, accountID)
	require.NoError(t, err)
	defer rows.Close()

	var runningGems, runningCrystals int64
	var entries int
	for rows.Next() {
		var gems, crystals, gemsAfter, crystalsAfter int64
		require.NoError(t, rows.Scan(&gems, &crystals, &gemsAfter, &crystalsAfter))

		runningGems += gems
		runningCrystals += crystals
		assert.Equal(t, runningGems, gemsAfter, "entry %d gems snapshot", entries)
		assert.Equal(t, runningCrystals, crystalsAfter, "entry %d crystals snapshot", entries)
		entries++
	}
	require.NoError(t, rows.Err())

	// Registration bonus, daily reward, exchange.
	assert.Equal(t, 3, entries)
	assert.Equal(t, int64(1253), runningGems)
	assert.Equal(t, int64(30), runningCrystals)
	testutil.AssertBalance(t, env, accountID, 1253, 30)
}

// ─── Concurrency Tests (1) ──────────────────────────────────────────────────

// Ten simultaneous stake deductions against one account must serialize on
// the account row lock: with 1000 gems and a 300 gem stake exactly three
// can land, whatever the interleaving, and the balance never goes negative.
func TestLedger_ConcurrentWagersSerialize(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, accountID := env.SeedAccount("race_rita", domain.RoleUser, 1000, 0)

	engine := ledger.NewEngine(
		repository.NewAccountRepository(),
		repository.NewLedgerRepository(),
		repository.NewOutboxRepository(),
	)

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = pgx.BeginTxFunc(context.Background(), env.Pool,
				pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
					_, err := engine.ExecutePlaceWager(context.Background(), tx, domain.PlaceWagerParams{
						AccountID:      accountID,
						WagerID:        uuid.New(),
						Game:           domain.GameMines,
						Stake:          300,
						IdempotencyKey: fmt.Sprintf("race-%d", i),
					})
					return err
				})
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		losses++
		var appErr *domain.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "INSUFFICIENT_BALANCE", appErr.Code)
	}
	assert.Equal(t, 3, wins)
	assert.Equal(t, 7, losses)

	testutil.AssertBalance(t, env, accountID, 100, 0)
	assert.Equal(t, 3, testutil.CountLedgerEntries(t, env, accountID))
	assert.Equal(t, 3, testutil.CountOutboxEvents(t, env, accountID.String()))
}
