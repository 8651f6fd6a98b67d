package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/infra"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type wagerRepo struct{}

// NewWagerRepository returns a pgx-backed WagerRepository.
func NewWagerRepository() WagerRepository {
	return &wagerRepo{}
}

const wagerColumns = `id, account_id, game, stake, status, payout, profit, outcome,
	       commitment, server_seed, client_seed, nonce, created_at, settled_at`

func (r *wagerRepo) Insert(ctx context.Context, db DBTX, w *domain.Wager) error {
	outcome := w.Outcome
	if outcome == nil {
		outcome = json.RawMessage(`{}`)
	}
	_, err := db.Exec(ctx, `
		INSERT INTO wagers
		  (id, account_id, game, stake, status, payout, profit, outcome,
		   commitment, server_seed, client_seed, nonce, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		w.ID,
		w.AccountID,
		string(w.Game),
		infra.Int64ToNumeric(int64(w.Stake)),
		string(w.Status),
		infra.Int64ToNumeric(int64(w.Payout)),
		infra.Int64ToNumeric(int64(w.Profit)),
		outcome,
		w.Commitment,
		w.ServerSeed,
		w.ClientSeed,
		w.Nonce,
		w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wager: %w", err)
	}
	return nil
}

func (r *wagerRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Wager, error) {
	row := db.QueryRow(ctx, `
		SELECT `+wagerColumns+`
		FROM wagers WHERE id = $1`, id)
	return scanWager(row)
}

func (r *wagerRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wager, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+wagerColumns+`
		FROM wagers WHERE id = $1 FOR UPDATE`, id)
	return scanWager(row)
}

func (r *wagerRepo) UpdateOutcome(ctx context.Context, db DBTX, id uuid.UUID, outcome json.RawMessage) error {
	tag, err := db.Exec(ctx, `
		UPDATE wagers SET outcome = $1 WHERE id = $2 AND status = $3`,
		outcome, id, string(domain.WagerOpen))
	if err != nil {
		return fmt.Errorf("update wager outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySettled(id.String())
	}
	return nil
}

// Settle flips an open wager to its terminal status. The status guard in
// the WHERE clause is the idempotency barrier: a second settlement attempt
// affects zero rows.
func (r *wagerRepo) Settle(ctx context.Context, db DBTX, id uuid.UUID, status domain.WagerStatus, payout, profit int64, outcome json.RawMessage, settledAt time.Time) (bool, error) {
	if outcome == nil {
		outcome = json.RawMessage(`{}`)
	}
	tag, err := db.Exec(ctx, `
		UPDATE wagers
		SET status = $1, payout = $2, profit = $3, outcome = $4, settled_at = $5
		WHERE id = $6 AND status = $7`,
		string(status),
		infra.Int64ToNumeric(payout),
		infra.Int64ToNumeric(profit),
		outcome,
		settledAt,
		id,
		string(domain.WagerOpen),
	)
	if err != nil {
		return false, fmt.Errorf("settle wager: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *wagerRepo) ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID, cursor *string, limit int) ([]domain.Wager, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = db.Query(ctx, `
			SELECT `+wagerColumns+`
			FROM wagers
			WHERE account_id = $1
			  AND (created_at, id) < ((SELECT created_at, id FROM wagers WHERE id = $2))
			ORDER BY created_at DESC, id DESC
			LIMIT $3`, accountID, *cursor, limit)
	} else {
		rows, err = db.Query(ctx, `
			SELECT `+wagerColumns+`
			FROM wagers
			WHERE account_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, accountID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list wagers: %w", err)
	}
	defer rows.Close()

	var wagers []domain.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		wagers = append(wagers, *w)
	}
	return wagers, rows.Err()
}

func (r *wagerRepo) ListRecentWins(ctx context.Context, db DBTX, minPayout int64, limit int) ([]domain.WagerWin, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	rows, err := db.Query(ctx, `
		SELECT w.id, a.username, w.game, w.stake, w.payout, w.settled_at
		FROM wagers w
		JOIN accounts a ON a.id = w.account_id
		WHERE w.status = $1 AND w.payout >= $2
		ORDER BY w.settled_at DESC
		LIMIT $3`,
		string(domain.WagerWon), infra.Int64ToNumeric(minPayout), limit)
	if err != nil {
		return nil, fmt.Errorf("list recent wins: %w", err)
	}
	defer rows.Close()

	var wins []domain.WagerWin
	for rows.Next() {
		var win domain.WagerWin
		var game string
		var stakeNum, payoutNum pgtype.Numeric
		if err := rows.Scan(&win.WagerID, &win.Username, &game, &stakeNum, &payoutNum, &win.SettledAt); err != nil {
			return nil, fmt.Errorf("scan win: %w", err)
		}
		win.Game = domain.Game(game)
		stake, convErr := infra.NumericToInt64(stakeNum)
		if convErr != nil {
			return nil, fmt.Errorf("convert stake: %w", convErr)
		}
		payout, convErr := infra.NumericToInt64(payoutNum)
		if convErr != nil {
			return nil, fmt.Errorf("convert payout: %w", convErr)
		}
		win.Stake = domain.Amount(stake)
		win.Payout = domain.Amount(payout)
		wins = append(wins, win)
	}
	return wins, rows.Err()
}

func (r *wagerRepo) DailyStaked(ctx context.Context, db DBTX, accountID uuid.UUID) (int64, error) {
	return r.dailySum(ctx, db, accountID, `COALESCE(sum(stake), 0)`, ``)
}

func (r *wagerRepo) DailyLost(ctx context.Context, db DBTX, accountID uuid.UUID) (int64, error) {
	return r.dailySum(ctx, db, accountID, `COALESCE(sum(-profit), 0)`, ` AND status = 'lost'`)
}

func (r *wagerRepo) dailySum(ctx context.Context, db DBTX, accountID uuid.UUID, expr, filter string) (int64, error) {
	var sumNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT `+expr+`
		FROM wagers
		WHERE account_id = $1
		  AND created_at >= date_trunc('day', now() AT TIME ZONE 'utc')`+filter,
		accountID).Scan(&sumNum)
	if err != nil {
		return 0, fmt.Errorf("daily wager sum: %w", err)
	}
	return infra.NumericToInt64(sumNum)
}

func (r *wagerRepo) Stats(ctx context.Context, db DBTX) (*domain.WagerStats, error) {
	var stats domain.WagerStats
	var stakedNum, paidNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'open'),
		       COALESCE(sum(stake), 0),
		       COALESCE(sum(payout) FILTER (WHERE status <> 'open'), 0)
		FROM wagers`).Scan(&stats.TotalWagers, &stats.OpenWagers, &stakedNum, &paidNum)
	if err != nil {
		return nil, fmt.Errorf("wager stats: %w", err)
	}

	staked, convErr := infra.NumericToInt64(stakedNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert staked: %w", convErr)
	}
	paid, convErr := infra.NumericToInt64(paidNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert paid: %w", convErr)
	}
	stats.TotalStaked = domain.Amount(staked)
	stats.TotalPaid = domain.Amount(paid)
	stats.HouseProfit = stats.TotalStaked - stats.TotalPaid
	return &stats, nil
}

func scanWager(row pgx.Row) (*domain.Wager, error) {
	var w domain.Wager
	var game, status string
	var stakeNum, payoutNum, profitNum pgtype.Numeric
	err := row.Scan(&w.ID, &w.AccountID, &game, &stakeNum, &status, &payoutNum, &profitNum,
		&w.Outcome, &w.Commitment, &w.ServerSeed, &w.ClientSeed, &w.Nonce, &w.CreatedAt, &w.SettledAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wager: %w", err)
	}
	w.Game = domain.Game(game)
	w.Status = domain.WagerStatus(status)

	stake, convErr := infra.NumericToInt64(stakeNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert stake: %w", convErr)
	}
	payout, convErr := infra.NumericToInt64(payoutNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert payout: %w", convErr)
	}
	profit, convErr := infra.NumericToInt64(profitNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert profit: %w", convErr)
	}
	w.Stake = domain.Amount(stake)
	w.Payout = domain.Amount(payout)
	w.Profit = domain.Amount(profit)

	return &w, nil
}
