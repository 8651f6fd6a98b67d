package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gemcade/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// AccountRepository provides access to accounts.
type AccountRepository interface {
	// FindByID returns an account by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error)

	// FindByUsername resolves a username case-insensitively.
	FindByUsername(ctx context.Context, db DBTX, username string) (*domain.Account, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the account.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)

	// Create inserts a new account.
	Create(ctx context.Context, db DBTX, account *domain.Account) error

	// UpdateBalances atomically applies deltas using server-side arithmetic
	// with dynamic SET clauses.
	UpdateBalances(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta domain.BalanceUpdate) (*domain.Account, error)

	// UpdateRole sets the account's role.
	UpdateRole(ctx context.Context, db DBTX, id uuid.UUID, role domain.Role) error

	// SetBanned flips the ban flag and reason.
	SetBanned(ctx context.Context, db DBTX, id uuid.UUID, banned bool, reason string) error

	// Count returns the total number of accounts.
	Count(ctx context.Context, db DBTX) (int64, error)

	// FindOwner returns the account currently holding the owner role.
	FindOwner(ctx context.Context, db DBTX) (*domain.Account, error)

	// Search lists accounts filtered by a username fragment, newest first,
	// with cursor pagination.
	Search(ctx context.Context, db DBTX, query string, cursor *string, limit int) ([]domain.Account, error)

	// Leaderboard returns the top accounts ordered by gems or xp.
	Leaderboard(ctx context.Context, db DBTX, orderBy string, limit int) ([]domain.Account, error)
}

// WagerRepository provides access to wagers.
type WagerRepository interface {
	// Insert creates an open wager row.
	Insert(ctx context.Context, db DBTX, w *domain.Wager) error

	// FindByID returns a wager by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Wager, error)

	// LockForUpdate locks the wager row so concurrent reveals and cash-outs
	// of the same round serialize.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wager, error)

	// UpdateOutcome rewrites the outcome payload of a still-open wager.
	UpdateOutcome(ctx context.Context, db DBTX, id uuid.UUID, outcome json.RawMessage) error

	// Settle finalizes an open wager. Returns false when the row was not
	// open anymore, which callers surface as AlreadySettled.
	Settle(ctx context.Context, db DBTX, id uuid.UUID, status domain.WagerStatus, payout, profit int64, outcome json.RawMessage, settledAt time.Time) (bool, error)

	// ListByAccount returns an account's wagers, newest first, with cursor
	// pagination.
	ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID, cursor *string, limit int) ([]domain.Wager, error)

	// ListRecentWins returns recently settled wagers whose payout meets the
	// threshold, for the public win feed.
	ListRecentWins(ctx context.Context, db DBTX, minPayout int64, limit int) ([]domain.WagerWin, error)

	// DailyStaked sums the stakes an account placed since UTC midnight.
	DailyStaked(ctx context.Context, db DBTX, accountID uuid.UUID) (int64, error)

	// DailyLost sums an account's losses since UTC midnight.
	DailyLost(ctx context.Context, db DBTX, accountID uuid.UUID) (int64, error)

	// Stats aggregates site-wide wager counts and sums for admin reports.
	Stats(ctx context.Context, db DBTX) (*domain.WagerStats, error)
}

// LedgerRepository provides access to ledger_entries.
type LedgerRepository interface {
	// Insert creates a ledger entry with post-entry balance snapshots.
	Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, after domain.Balances) (*domain.LedgerEntry, error)

	// FindByIdempotencyKey checks the idempotency index for a duplicate entry.
	FindByIdempotencyKey(ctx context.Context, db DBTX, accountID uuid.UUID, key string) (*domain.LedgerEntry, error)

	// ListByAccount returns an account's entries, newest first, with cursor
	// pagination.
	ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID, cursor *string, limit int) ([]domain.LedgerEntry, error)

	// LastByType returns the most recent entry of a type for an account.
	LastByType(ctx context.Context, db DBTX, accountID uuid.UUID, entryType domain.EntryType) (*domain.LedgerEntry, error)

	// DailySumByType returns the site-wide gems total of entries of the
	// given type since the start of the current UTC day.
	DailySumByType(ctx context.Context, db DBTX, entryType domain.EntryType) (int64, error)
}

// SessionRepository provides access to sessions.
type SessionRepository interface {
	// Create inserts a session row.
	Create(ctx context.Context, db DBTX, s *domain.Session) error

	// FindByToken resolves a bearer token to its session.
	FindByToken(ctx context.Context, db DBTX, token string) (*domain.Session, error)

	// Delete removes one session (logout).
	Delete(ctx context.Context, db DBTX, token string) error

	// DeleteByAccount revokes every session an account holds.
	DeleteByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) (int64, error)

	// DeleteExpired sweeps expired sessions and reports how many went.
	DeleteExpired(ctx context.Context, db DBTX) (int64, error)

	// CountActiveByIP counts live sessions from an address, a login risk
	// signal.
	CountActiveByIP(ctx context.Context, db DBTX, ip string) (int, error)
}

// AuditRepository provides access to the append-only admin_actions log.
type AuditRepository interface {
	// Insert writes one audit row. There is no update or delete.
	Insert(ctx context.Context, db DBTX, action *domain.AdminAction) error

	// List returns audit rows, newest first, with cursor pagination.
	List(ctx context.Context, db DBTX, cursor *string, limit int) ([]domain.AdminAction, error)

	// ListByTarget returns audit rows touching one account.
	ListByTarget(ctx context.Context, db DBTX, targetID uuid.UUID, limit int) ([]domain.AdminAction, error)
}

// SettingsRepository provides access to the settings key/value rows.
type SettingsRepository interface {
	// Get returns the raw value for a key, nil when absent.
	Get(ctx context.Context, db DBTX, key string) (json.RawMessage, error)

	// Set upserts a value.
	Set(ctx context.Context, db DBTX, key string, value json.RawMessage) error
}

// OutboxRow pairs an outbox draft with its table sequence ID for the poller.
type OutboxRow struct {
	SeqID int64
	domain.OutboxDraft
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event within the same transaction as the
	// state change it describes.
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the poller, oldest first.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]OutboxRow, error)

	// MarkPublished stamps events as published.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
