package repository

import (
	"context"
	"fmt"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/infra"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type ledgerRepo struct{}

// NewLedgerRepository returns a pgx-backed LedgerRepository.
func NewLedgerRepository() LedgerRepository {
	return &ledgerRepo{}
}

const ledgerColumns = `id, account_id, type, gems, crystals, gems_after, crystals_after,
	       wager_id, idempotency_key, metadata, created_at`

func (r *ledgerRepo) Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, after domain.Balances) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:             uuid.New(),
		AccountID:      params.AccountID,
		Type:           params.Type,
		Gems:           domain.Amount(params.Update.Gems),
		Crystals:       domain.Amount(params.Update.Crystals),
		GemsAfter:      after.Gems,
		CrystalsAfter:  after.Crystals,
		WagerID:        params.WagerID,
		IdempotencyKey: params.IdempotencyKey,
		Metadata:       params.Metadata,
	}

	err := db.QueryRow(ctx, `
		INSERT INTO ledger_entries
		  (id, account_id, type, gems, crystals, gems_after, crystals_after,
		   wager_id, idempotency_key, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		entry.ID,
		entry.AccountID,
		string(entry.Type),
		infra.Int64ToNumeric(int64(entry.Gems)),
		infra.Int64ToNumeric(int64(entry.Crystals)),
		infra.Int64ToNumeric(int64(entry.GemsAfter)),
		infra.Int64ToNumeric(int64(entry.CrystalsAfter)),
		entry.WagerID,
		entry.IdempotencyKey,
		entry.Metadata,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	return entry, nil
}

func (r *ledgerRepo) FindByIdempotencyKey(ctx context.Context, db DBTX, accountID uuid.UUID, key string) (*domain.LedgerEntry, error) {
	row := db.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE account_id = $1 AND idempotency_key = $2`, accountID, key)
	return scanLedgerEntry(row)
}

func (r *ledgerRepo) ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID, cursor *string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = db.Query(ctx, `
			SELECT `+ledgerColumns+`
			FROM ledger_entries
			WHERE account_id = $1
			  AND (created_at, id) < ((SELECT created_at, id FROM ledger_entries WHERE id = $2))
			ORDER BY created_at DESC, id DESC
			LIMIT $3`, accountID, *cursor, limit)
	} else {
		rows, err = db.Query(ctx, `
			SELECT `+ledgerColumns+`
			FROM ledger_entries
			WHERE account_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, accountID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (r *ledgerRepo) LastByType(ctx context.Context, db DBTX, accountID uuid.UUID, entryType domain.EntryType) (*domain.LedgerEntry, error) {
	row := db.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE account_id = $1 AND type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, accountID, string(entryType))
	return scanLedgerEntry(row)
}

func (r *ledgerRepo) DailySumByType(ctx context.Context, db DBTX, entryType domain.EntryType) (int64, error) {
	var sumNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(sum(gems), 0)
		FROM ledger_entries
		WHERE type = $1
		  AND created_at >= date_trunc('day', now() AT TIME ZONE 'utc')`,
		string(entryType)).Scan(&sumNum)
	if err != nil {
		return 0, fmt.Errorf("daily ledger sum: %w", err)
	}
	return infra.NumericToInt64(sumNum)
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	var entryType string
	var gemsNum, crystalsNum, gemsAfterNum, crystalsAfterNum pgtype.Numeric
	err := row.Scan(&entry.ID, &entry.AccountID, &entryType, &gemsNum, &crystalsNum,
		&gemsAfterNum, &crystalsAfterNum, &entry.WagerID, &entry.IdempotencyKey,
		&entry.Metadata, &entry.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	entry.Type = domain.EntryType(entryType)

	gems, convErr := infra.NumericToInt64(gemsNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert gems: %w", convErr)
	}
	crystals, convErr := infra.NumericToInt64(crystalsNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert crystals: %w", convErr)
	}
	gemsAfter, convErr := infra.NumericToInt64(gemsAfterNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert gems_after: %w", convErr)
	}
	crystalsAfter, convErr := infra.NumericToInt64(crystalsAfterNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert crystals_after: %w", convErr)
	}
	entry.Gems = domain.Amount(gems)
	entry.Crystals = domain.Amount(crystals)
	entry.GemsAfter = domain.Amount(gemsAfter)
	entry.CrystalsAfter = domain.Amount(crystalsAfter)

	return &entry, nil
}
