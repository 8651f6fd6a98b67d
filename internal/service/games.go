package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/games"
	"github.com/gemcade/platform/internal/guard"
	"github.com/gemcade/platform/internal/ledger"
	"github.com/gemcade/platform/internal/policy"
	"github.com/gemcade/platform/internal/provider"
	"github.com/gemcade/platform/internal/repository"
	"github.com/gemcade/platform/internal/settlement"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GamesConfig holds the house parameters for the crash game.
type GamesConfig struct {
	CrashMaxMultiplier float64
	CrashHouseEdge     float64
}

// GamesService runs the three wager games: mines, plinko and crash. Every
// outcome is drawn from a committed fairness seed before any money moves.
type GamesService struct {
	pool    *pgxpool.Pool
	wagers  repository.WagerRepository
	outbox  repository.OutboxRepository
	engine  *ledger.Engine
	settle  *settlement.WagerSettlement
	entropy *provider.RandomOrgClient
	idem    *guard.IdempotencyGuard
	limits  policy.WagerLimitPolicy
	cfg     GamesConfig
	logger  *slog.Logger
}

// NewGamesService creates a GamesService.
func NewGamesService(
	pool *pgxpool.Pool,
	wagers repository.WagerRepository,
	outbox repository.OutboxRepository,
	engine *ledger.Engine,
	settle *settlement.WagerSettlement,
	entropy *provider.RandomOrgClient,
	limits policy.WagerLimitPolicy,
	cfg GamesConfig,
	logger *slog.Logger,
) *GamesService {
	return &GamesService{
		pool:    pool,
		wagers:  wagers,
		outbox:  outbox,
		engine:  engine,
		settle:  settle,
		entropy: entropy,
		idem:    guard.NewIdempotencyGuard(),
		limits:  limits,
		cfg:     cfg,
		logger:  logger,
	}
}

// WagerRound is the response shape for every game endpoint. Multiplier is
// the current cash-out value for an open round and the final value for a
// settled one; NextMultiplier is set for open mines rounds only.
type WagerRound struct {
	Wager          *domain.Wager    `json:"wager"`
	Multiplier     float64          `json:"multiplier"`
	NextMultiplier float64          `json:"next_multiplier,omitempty"`
	Balance        *domain.Balances `json:"balance,omitempty"`
}

// StartMinesInput holds a mines placement request.
type StartMinesInput struct {
	Stake          int64  `json:"stake"`
	GridSize       int    `json:"grid_size"`
	MineCount      int    `json:"mine_count"`
	ClientSeed     string `json:"client_seed"`
	IdempotencyKey string `json:"-"`
}

// StartMines places a mines wager: the stake is deducted, the mine layout
// drawn from the fairness seed and the commitment published, all in one
// transaction.
func (s *GamesService) StartMines(ctx context.Context, accountID uuid.UUID, input StartMinesInput) (round *WagerRound, err error) {
	if input.Stake <= 0 {
		return nil, domain.ErrValidation("stake must be positive")
	}
	if verr := games.ValidateMinesParams(input.GridSize, input.MineCount); verr != nil {
		return nil, domain.ErrValidation(verr.Error())
	}
	if gr := s.idem.Check(ctx, input.IdempotencyKey); !gr.Allowed {
		return nil, domain.ErrConflict(gr.Reason)
	}
	// Held for the request only; once the placement lands (or fails) the
	// ledger's unique key is what makes retries replay the original.
	defer s.idem.Remove(input.IdempotencyKey)

	if err = s.checkLimits(ctx, accountID, input.Stake); err != nil {
		return nil, err
	}

	w, src, err := s.newFairWager(ctx, accountID, domain.GameMines, input.Stake, input.ClientSeed)
	if err != nil {
		return nil, err
	}
	state := domain.MinesState{
		GridSize:  input.GridSize,
		MineCount: input.MineCount,
		Mines:     games.PlaceMines(src, input.GridSize, input.MineCount),
		Revealed:  []int{},
	}
	w.Outcome, _ = json.Marshal(state)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.place(ctx, tx, w, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if result.Idempotent {
		return s.replayedRound(ctx, result.Entry)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}
	return s.roundView(w, &result.Account.Balances), nil
}

// RevealMine uncovers one cell of an open mines round. A mine ends the
// round as a loss; clearing the final safe cell ends it at the multiplier
// cap; anything else just extends the revealed set.
func (s *GamesService) RevealMine(ctx context.Context, accountID, wagerID uuid.UUID, cell int) (*WagerRound, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.lockOpenWager(ctx, tx, accountID, wagerID, domain.GameMines)
	if err != nil {
		return nil, err
	}

	var state domain.MinesState
	if err := json.Unmarshal(w.Outcome, &state); err != nil {
		return nil, domain.ErrInternal("decode mines state", err)
	}
	cells := state.GridSize * state.GridSize
	if cell < 0 || cell >= cells {
		return nil, domain.ErrValidation(fmt.Sprintf("cell must be 0-%d", cells-1))
	}
	if state.IsRevealed(cell) {
		return nil, domain.ErrValidation("cell already revealed")
	}

	if state.IsMine(cell) {
		outcome, _ := json.Marshal(state)
		return s.finishRound(ctx, tx, w, 0, outcome)
	}

	state.Revealed = append(state.Revealed, cell)
	outcome, _ := json.Marshal(state)

	// Clearing the last safe cell ends the round at the multiplier cap.
	if state.SafeRevealed() >= cells-state.MineCount {
		mult := games.MinesMultiplier(state.SafeRevealed(), state.GridSize, state.MineCount)
		return s.finishRound(ctx, tx, w, games.Payout(int64(w.Stake), mult), outcome)
	}

	if err := s.wagers.UpdateOutcome(ctx, tx, w.ID, outcome); err != nil {
		return nil, err
	}
	w.Outcome = outcome
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}
	return s.roundView(w, nil), nil
}

// CashoutMines settles an open mines round at the current multiplier. With
// zero reveals the multiplier is 1.0, which returns exactly the stake.
func (s *GamesService) CashoutMines(ctx context.Context, accountID, wagerID uuid.UUID) (*WagerRound, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.lockOpenWager(ctx, tx, accountID, wagerID, domain.GameMines)
	if err != nil {
		return nil, err
	}

	var state domain.MinesState
	if err := json.Unmarshal(w.Outcome, &state); err != nil {
		return nil, domain.ErrInternal("decode mines state", err)
	}
	mult := games.MinesMultiplier(state.SafeRevealed(), state.GridSize, state.MineCount)
	return s.finishRound(ctx, tx, w, games.Payout(int64(w.Stake), mult), w.Outcome)
}

// DropPlinkoInput holds a plinko drop request.
type DropPlinkoInput struct {
	Stake          int64  `json:"stake"`
	Rows           int    `json:"rows"`
	Risk           string `json:"risk"`
	ClientSeed     string `json:"client_seed"`
	IdempotencyKey string `json:"-"`
}

// DropPlinko places and settles a plinko wager in one transaction; the
// drop has no mid-round decisions.
func (s *GamesService) DropPlinko(ctx context.Context, accountID uuid.UUID, input DropPlinkoInput) (round *WagerRound, err error) {
	if input.Stake <= 0 {
		return nil, domain.ErrValidation("stake must be positive")
	}
	risk, perr := games.ParseRisk(input.Risk)
	if perr != nil {
		return nil, domain.ErrValidation(perr.Error())
	}
	if verr := games.ValidateDropParams(input.Rows); verr != nil {
		return nil, domain.ErrValidation(verr.Error())
	}
	if gr := s.idem.Check(ctx, input.IdempotencyKey); !gr.Allowed {
		return nil, domain.ErrConflict(gr.Reason)
	}
	// Held for the request only; once the placement lands (or fails) the
	// ledger's unique key is what makes retries replay the original.
	defer s.idem.Remove(input.IdempotencyKey)

	if err = s.checkLimits(ctx, accountID, input.Stake); err != nil {
		return nil, err
	}

	w, src, err := s.newFairWager(ctx, accountID, domain.GamePlinko, input.Stake, input.ClientSeed)
	if err != nil {
		return nil, err
	}
	path, slot := games.Drop(src, input.Rows)
	mult := games.PlinkoMultiplier(risk, slot)
	w.Outcome, _ = json.Marshal(domain.PlinkoOutcome{
		Rows:       input.Rows,
		Risk:       string(risk),
		Path:       path,
		Slot:       slot,
		Multiplier: mult,
	})

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.place(ctx, tx, w, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if result.Idempotent {
		return s.replayedRound(ctx, result.Entry)
	}
	return s.finishRound(ctx, tx, w, games.Payout(input.Stake, mult), w.Outcome)
}

// StartCrashInput holds a crash placement request.
type StartCrashInput struct {
	Stake          int64   `json:"stake"`
	Mode           string  `json:"mode"`
	AutoCashout    float64 `json:"auto_cashout"`
	ClientSeed     string  `json:"client_seed"`
	IdempotencyKey string  `json:"-"`
}

// StartCrash places a crash wager. The crash point is drawn and stored up
// front; the multiplier curve runs on server wall clock from the stored
// start time, so cash-outs never trust client timing.
func (s *GamesService) StartCrash(ctx context.Context, accountID uuid.UUID, input StartCrashInput) (round *WagerRound, err error) {
	if input.Stake <= 0 {
		return nil, domain.ErrValidation("stake must be positive")
	}
	mode, perr := games.ParseCrashMode(input.Mode)
	if perr != nil {
		return nil, domain.ErrValidation(perr.Error())
	}
	if verr := games.ValidateAutoCashout(input.AutoCashout, s.cfg.CrashMaxMultiplier); verr != nil {
		return nil, domain.ErrValidation(verr.Error())
	}
	if gr := s.idem.Check(ctx, input.IdempotencyKey); !gr.Allowed {
		return nil, domain.ErrConflict(gr.Reason)
	}
	// Held for the request only; once the placement lands (or fails) the
	// ledger's unique key is what makes retries replay the original.
	defer s.idem.Remove(input.IdempotencyKey)

	if err = s.checkLimits(ctx, accountID, input.Stake); err != nil {
		return nil, err
	}

	w, src, err := s.newFairWager(ctx, accountID, domain.GameCrash, input.Stake, input.ClientSeed)
	if err != nil {
		return nil, err
	}
	w.Outcome, _ = json.Marshal(domain.CrashState{
		CrashPoint:  games.DrawCrashPoint(src, s.cfg.CrashMaxMultiplier, s.cfg.CrashHouseEdge),
		Mode:        string(mode),
		AutoCashout: input.AutoCashout,
		StartedAt:   w.CreatedAt,
	})

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.place(ctx, tx, w, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if result.Idempotent {
		return s.replayedRound(ctx, result.Entry)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}
	return s.roundView(w, &result.Account.Balances), nil
}

// CashoutCrash settles an open crash round at the server-computed elapsed
// time. An auto cash-out threshold the curve already passed takes
// precedence over the manual request; a passed crash point beats both.
func (s *GamesService) CashoutCrash(ctx context.Context, accountID, wagerID uuid.UUID) (*WagerRound, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.lockOpenWager(ctx, tx, accountID, wagerID, domain.GameCrash)
	if err != nil {
		return nil, err
	}

	var state domain.CrashState
	if err := json.Unmarshal(w.Outcome, &state); err != nil {
		return nil, domain.ErrInternal("decode crash state", err)
	}

	now := time.Now().UTC()
	won, mult := resolveCashout(&state, now.Sub(state.StartedAt).Seconds())

	var payout int64
	if won {
		payout = games.Payout(int64(w.Stake), mult)
		state.CashedOutAt = &now
		state.CashoutValue = mult
	}
	outcome, _ := json.Marshal(state)
	return s.finishRound(ctx, tx, w, payout, outcome)
}

// GetWager returns one round. Polling an open crash round whose outcome is
// already decided settles it on the spot, so busts and fired auto
// cash-outs need no background scheduler.
func (s *GamesService) GetWager(ctx context.Context, accountID, wagerID uuid.UUID) (*WagerRound, error) {
	w, err := s.wagers.FindByID(ctx, s.pool, wagerID)
	if err != nil {
		return nil, domain.ErrInternal("find wager", err)
	}
	if w == nil || w.AccountID != accountID {
		return nil, domain.ErrNotFound("wager", wagerID.String())
	}
	if w.Settled() || w.Game != domain.GameCrash {
		return s.roundView(w, nil), nil
	}

	var state domain.CrashState
	if err := json.Unmarshal(w.Outcome, &state); err != nil {
		return nil, domain.ErrInternal("decode crash state", err)
	}
	if !crashTerminal(&state, time.Since(state.StartedAt).Seconds()) {
		return s.roundView(w, nil), nil
	}

	round, err := s.CashoutCrash(ctx, accountID, wagerID)
	if err != nil {
		// Lost the settle race against a concurrent request; the row is
		// terminal now, serve it as-is.
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == "ALREADY_SETTLED" {
			if settled, ferr := s.wagers.FindByID(ctx, s.pool, wagerID); ferr == nil && settled != nil {
				return s.roundView(settled, nil), nil
			}
		}
		return nil, err
	}
	return round, nil
}

// ListWagers returns an account's wager history, newest first.
func (s *GamesService) ListWagers(ctx context.Context, accountID uuid.UUID, cursor *string, limit int) ([]domain.Wager, error) {
	list, err := s.wagers.ListByAccount(ctx, s.pool, accountID, cursor, limit)
	if err != nil {
		return nil, domain.ErrInternal("list wagers", err)
	}
	for i := range list {
		list[i] = *sanitizeWager(&list[i])
	}
	return list, nil
}

// VerifyInput holds a fairness verification request. MaxMultiplier and
// HouseEdge override the current house parameters when checking a crash
// round placed under older settings.
type VerifyInput struct {
	Game       string `json:"game"`
	ServerSeed string `json:"server_seed"`
	ClientSeed string `json:"client_seed"`
	Nonce      int64  `json:"nonce"`
	Commitment string `json:"commitment,omitempty"`

	GridSize  int    `json:"grid_size,omitempty"`
	MineCount int    `json:"mine_count,omitempty"`
	Rows      int    `json:"rows,omitempty"`
	Risk      string `json:"risk,omitempty"`

	MaxMultiplier float64 `json:"max_multiplier,omitempty"`
	HouseEdge     float64 `json:"house_edge,omitempty"`
}

// VerifyResult holds the replayed outcome.
type VerifyResult struct {
	Commitment      string   `json:"commitment"`
	CommitmentValid *bool    `json:"commitment_valid,omitempty"`
	Mines           []int    `json:"mines,omitempty"`
	Path            []int    `json:"path,omitempty"`
	Slot            *int     `json:"slot,omitempty"`
	Multiplier      *float64 `json:"multiplier,omitempty"`
	CrashPoint      *float64 `json:"crash_point,omitempty"`
}

// Verify replays an outcome from a revealed server seed. Pure computation;
// anyone can check a settled round without an account.
func (s *GamesService) Verify(input VerifyInput) (*VerifyResult, error) {
	seed, err := hex.DecodeString(input.ServerSeed)
	if err != nil || len(seed) == 0 {
		return nil, domain.ErrValidation("server_seed must be hex")
	}

	res := &VerifyResult{Commitment: games.Commitment(seed)}
	if input.Commitment != "" {
		valid := games.VerifyCommitment(input.Commitment, seed)
		res.CommitmentValid = &valid
	}

	src := games.NewFairSource(seed, input.ClientSeed, input.Nonce)
	switch domain.Game(input.Game) {
	case domain.GameMines:
		if verr := games.ValidateMinesParams(input.GridSize, input.MineCount); verr != nil {
			return nil, domain.ErrValidation(verr.Error())
		}
		res.Mines = games.PlaceMines(src, input.GridSize, input.MineCount)
	case domain.GamePlinko:
		risk, perr := games.ParseRisk(input.Risk)
		if perr != nil {
			return nil, domain.ErrValidation(perr.Error())
		}
		if verr := games.ValidateDropParams(input.Rows); verr != nil {
			return nil, domain.ErrValidation(verr.Error())
		}
		path, slot := games.Drop(src, input.Rows)
		mult := games.PlinkoMultiplier(risk, slot)
		res.Path, res.Slot, res.Multiplier = path, &slot, &mult
	case domain.GameCrash:
		maxMult, edge := input.MaxMultiplier, input.HouseEdge
		if maxMult <= 0 {
			maxMult, edge = s.cfg.CrashMaxMultiplier, s.cfg.CrashHouseEdge
		}
		point := games.DrawCrashPoint(src, maxMult, edge)
		res.CrashPoint = &point
	default:
		return nil, domain.ErrValidation("unknown game")
	}
	return res, nil
}

// checkLimits enforces the play limits against today's running totals and
// records a breach event when one trips.
func (s *GamesService) checkLimits(ctx context.Context, accountID uuid.UUID, stake int64) error {
	staked, err := s.wagers.DailyStaked(ctx, s.pool, accountID)
	if err != nil {
		return domain.ErrInternal("daily staked query", err)
	}
	lost, err := s.wagers.DailyLost(ctx, s.pool, accountID)
	if err != nil {
		return domain.ErrInternal("daily lost query", err)
	}

	eval := policy.EvaluateWagerLimits(s.limits, stake, staked, lost)
	if eval.Allowed {
		return nil
	}
	if err := s.outbox.Insert(ctx, s.pool,
		domain.NewLimitBreachedEvent(accountID, eval.BreachedLimit, eval.LimitValue, eval.RequestedAmt)); err != nil {
		s.logger.Warn("limit breach event insert failed", "account_id", accountID, "error", err)
	}
	return &domain.AppError{
		Code:    "WAGER_LIMIT_BREACHED",
		Message: fmt.Sprintf("wager exceeds %s limit", eval.BreachedLimit),
		Status:  422,
	}
}

// newFairWager draws the fairness seed, mixing in beacon entropy when the
// beacon answers, and builds the committed wager skeleton.
func (s *GamesService) newFairWager(ctx context.Context, accountID uuid.UUID, game domain.Game, stake int64, clientSeed string) (*domain.Wager, *games.FairSource, error) {
	var extras [][]byte
	if e := s.entropy.SeedEntropy(ctx, games.ServerSeedSize); e != nil {
		extras = append(extras, e)
	}
	seed, err := games.NewServerSeed(extras...)
	if err != nil {
		return nil, nil, domain.ErrInternal("draw server seed", err)
	}

	nonce := time.Now().UnixNano()
	w := &domain.Wager{
		ID:         uuid.New(),
		AccountID:  accountID,
		Game:       game,
		Stake:      domain.Amount(stake),
		Status:     domain.WagerOpen,
		Commitment: games.Commitment(seed),
		ServerSeed: hex.EncodeToString(seed),
		ClientSeed: clientSeed,
		Nonce:      nonce,
		CreatedAt:  time.Now().UTC(),
	}
	return w, games.NewFairSource(seed, clientSeed, nonce), nil
}

// place runs the shared placement steps inside the caller's transaction:
// stake deduction, wager insert, placement event. A duplicate idempotency
// key short-circuits before the insert.
func (s *GamesService) place(ctx context.Context, tx pgx.Tx, w *domain.Wager, idempotencyKey string) (*domain.CommandResult, error) {
	result, err := s.engine.ExecutePlaceWager(ctx, tx, domain.PlaceWagerParams{
		AccountID:      w.AccountID,
		WagerID:        w.ID,
		Game:           w.Game,
		Stake:          int64(w.Stake),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	if result.Idempotent {
		return result, nil
	}
	if err := s.wagers.Insert(ctx, tx, w); err != nil {
		return nil, domain.ErrInternal("insert wager", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewWagerPlacedEvent(w)); err != nil {
		return nil, domain.ErrInternal("insert placed event", err)
	}
	return result, nil
}

// finishRound settles the wager and commits the caller's transaction.
func (s *GamesService) finishRound(ctx context.Context, tx pgx.Tx, w *domain.Wager, payout int64, outcome json.RawMessage) (*WagerRound, error) {
	result, err := s.settle.Settle(ctx, tx, w, payout, outcome)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}
	return s.roundView(w, &result.Account.Balances), nil
}

// replayedRound serves the round a duplicate placement created the first
// time around. The enclosing transaction wrote nothing and rolls back.
func (s *GamesService) replayedRound(ctx context.Context, entry *domain.LedgerEntry) (*WagerRound, error) {
	if entry == nil || entry.WagerID == nil {
		return nil, domain.ErrConflict("duplicate request")
	}
	w, err := s.wagers.FindByID(ctx, s.pool, *entry.WagerID)
	if err != nil {
		return nil, domain.ErrInternal("find wager", err)
	}
	if w == nil {
		return nil, domain.ErrConflict("duplicate request")
	}
	return s.roundView(w, nil), nil
}

// lockOpenWager locks a wager row and checks ownership, game and liveness.
// Wagers of other accounts read as not found.
func (s *GamesService) lockOpenWager(ctx context.Context, tx pgx.Tx, accountID, wagerID uuid.UUID, game domain.Game) (*domain.Wager, error) {
	w, err := s.wagers.LockForUpdate(ctx, tx, wagerID)
	if err != nil {
		return nil, domain.ErrInternal("lock wager", err)
	}
	if w == nil || w.AccountID != accountID {
		return nil, domain.ErrNotFound("wager", wagerID.String())
	}
	if w.Game != game {
		return nil, domain.ErrValidation(fmt.Sprintf("wager is not a %s round", game))
	}
	if w.Settled() {
		return nil, domain.ErrAlreadySettled(wagerID.String())
	}
	return w, nil
}

// roundView assembles the response for a wager, computing the multiplier
// from its game state.
func (s *GamesService) roundView(w *domain.Wager, balance *domain.Balances) *WagerRound {
	round := &WagerRound{Wager: sanitizeWager(w), Balance: balance}

	switch w.Game {
	case domain.GameMines:
		var state domain.MinesState
		if json.Unmarshal(w.Outcome, &state) != nil {
			return round
		}
		if w.Status == domain.WagerLost {
			return round
		}
		round.Multiplier = games.MinesMultiplier(state.SafeRevealed(), state.GridSize, state.MineCount)
		if !w.Settled() {
			round.NextMultiplier = games.MinesMultiplier(state.SafeRevealed()+1, state.GridSize, state.MineCount)
		}
	case domain.GamePlinko:
		var out domain.PlinkoOutcome
		if json.Unmarshal(w.Outcome, &out) == nil {
			round.Multiplier = out.Multiplier
		}
	case domain.GameCrash:
		var state domain.CrashState
		if json.Unmarshal(w.Outcome, &state) != nil {
			return round
		}
		switch w.Status {
		case domain.WagerOpen:
			round.Multiplier = games.CrashMultiplierAt(time.Since(state.StartedAt).Seconds(), games.CrashMode(state.Mode))
		case domain.WagerWon:
			round.Multiplier = state.CashoutValue
		}
	}
	return round
}

// resolveCashout applies the server-authoritative cash-out rules at a
// given elapsed time. An auto threshold the curve already reached fires
// first; a reached crash point beats everything. Ties go to the house.
func resolveCashout(state *domain.CrashState, elapsed float64) (won bool, multiplier float64) {
	effective := games.CrashMultiplierAt(elapsed, games.CrashMode(state.Mode))

	if state.AutoCashout > 0 && state.AutoCashout <= effective {
		if state.AutoCashout < state.CrashPoint {
			return true, state.AutoCashout
		}
		return false, 0
	}
	if effective >= state.CrashPoint {
		return false, 0
	}
	return true, effective
}

// crashTerminal reports whether an open crash round can no longer be
// influenced: the curve passed the crash point or the auto threshold.
func crashTerminal(state *domain.CrashState, elapsed float64) bool {
	effective := games.CrashMultiplierAt(elapsed, games.CrashMode(state.Mode))
	if effective >= state.CrashPoint {
		return true
	}
	return state.AutoCashout > 0 && state.AutoCashout <= effective
}

// sanitizeWager strips what an open round must not reveal: the server seed
// and, per game, the mine positions or the crash point. Settled wagers
// pass through complete.
func sanitizeWager(w *domain.Wager) *domain.Wager {
	if w.Settled() {
		return w
	}
	clean := *w
	clean.ServerSeed = ""
	clean.Outcome = redactOutcome(w.Game, w.Outcome)
	return &clean
}

func redactOutcome(game domain.Game, outcome json.RawMessage) json.RawMessage {
	switch game {
	case domain.GameMines:
		var state domain.MinesState
		if err := json.Unmarshal(outcome, &state); err != nil {
			return outcome
		}
		state.Mines = nil
		out, _ := json.Marshal(state)
		return out
	case domain.GameCrash:
		var state domain.CrashState
		if err := json.Unmarshal(outcome, &state); err != nil {
			return outcome
		}
		state.CrashPoint = 0
		out, _ := json.Marshal(state)
		return out
	}
	return outcome
}
