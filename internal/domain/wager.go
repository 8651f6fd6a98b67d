package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Game identifies one of the three wager games.
type Game string

const (
	GameMines  Game = "mines"
	GamePlinko Game = "plinko"
	GameCrash  Game = "crash"
)

func (g Game) Valid() bool {
	switch g {
	case GameMines, GamePlinko, GameCrash:
		return true
	}
	return false
}

// WagerStatus is the wager lifecycle state. A wager leaves "open" exactly
// once; settled rows are immutable.
type WagerStatus string

const (
	WagerOpen WagerStatus = "open"
	WagerWon  WagerStatus = "won"
	WagerLost WagerStatus = "lost"
)

// Wager represents a wagers row.
type Wager struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	Game      Game            `json:"game"`
	Stake     Amount          `json:"stake"`
	Status    WagerStatus     `json:"status"`
	Payout    Amount          `json:"payout"`
	Profit    Amount          `json:"profit"`
	Outcome   json.RawMessage `json:"outcome,omitempty"`

	// Commit-reveal fairness fields. ServerSeed stays empty on the wire
	// until the wager settles; Commitment is published at placement.
	Commitment string `json:"commitment"`
	ServerSeed string `json:"server_seed,omitempty"`
	ClientSeed string `json:"client_seed,omitempty"`
	Nonce      int64  `json:"nonce"`

	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

func (w *Wager) Settled() bool { return w.Status != WagerOpen }

// WagerWin is a public win-feed row: a settled winning wager joined with
// its account's username.
type WagerWin struct {
	WagerID   uuid.UUID `json:"wager_id"`
	Username  string    `json:"username"`
	Game      Game      `json:"game"`
	Stake     Amount    `json:"stake"`
	Payout    Amount    `json:"payout"`
	SettledAt time.Time `json:"settled_at"`
}

// WagerStats aggregates site-wide wager totals for admin reports.
type WagerStats struct {
	TotalWagers int64  `json:"total_wagers"`
	OpenWagers  int64  `json:"open_wagers"`
	TotalStaked Amount `json:"total_staked"`
	TotalPaid   Amount `json:"total_paid"`
	HouseProfit Amount `json:"house_profit"`
}

// MinesState is the outcome payload of a mines wager. Mines and the seed
// are withheld from responses while the round is open.
type MinesState struct {
	GridSize  int   `json:"grid_size"`
	MineCount int   `json:"mine_count"`
	Mines     []int `json:"mines,omitempty"`
	Revealed  []int `json:"revealed"`
}

// SafeRevealed counts revealed non-mine cells.
func (s *MinesState) SafeRevealed() int { return len(s.Revealed) }

// IsMine reports whether the cell holds a mine.
func (s *MinesState) IsMine(cell int) bool {
	for _, m := range s.Mines {
		if m == cell {
			return true
		}
	}
	return false
}

// IsRevealed reports whether the cell was already revealed.
func (s *MinesState) IsRevealed(cell int) bool {
	for _, r := range s.Revealed {
		if r == cell {
			return true
		}
	}
	return false
}

// PlinkoOutcome is the outcome payload of a plinko wager.
type PlinkoOutcome struct {
	Rows       int     `json:"rows"`
	Risk       string  `json:"risk"`
	Path       []int   `json:"path"`
	Slot       int     `json:"slot"`
	Multiplier float64 `json:"multiplier"`
}

// CrashState is the outcome payload of a crash wager. CrashPoint is
// withheld from responses while the round is open.
type CrashState struct {
	CrashPoint   float64    `json:"crash_point,omitempty"`
	Mode         string     `json:"mode"`
	AutoCashout  float64    `json:"auto_cashout,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CashedOutAt  *time.Time `json:"cashed_out_at,omitempty"`
	CashoutValue float64    `json:"cashout_value,omitempty"`
}
