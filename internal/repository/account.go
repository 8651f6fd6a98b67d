package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/infra"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type accountRepo struct{}

// NewAccountRepository returns a pgx-backed AccountRepository.
func NewAccountRepository() AccountRepository {
	return &accountRepo{}
}

const accountColumns = `id, username, password_hash, role, gems, crystals, xp, banned, ban_reason, created_at, updated_at`

func (r *accountRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error) {
	row := db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *accountRepo) FindByUsername(ctx context.Context, db DBTX, username string) (*domain.Account, error) {
	row := db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE lower(username) = lower($1)`, username)
	return scanAccount(row)
}

func (r *accountRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

func (r *accountRepo) Create(ctx context.Context, db DBTX, account *domain.Account) error {
	_, err := db.Exec(ctx, `
		INSERT INTO accounts (id, username, password_hash, role, gems, crystals, xp, banned, ban_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		account.ID,
		account.Username,
		account.PasswordHash,
		string(account.Role),
		infra.Int64ToNumeric(int64(account.Gems)),
		infra.Int64ToNumeric(int64(account.Crystals)),
		infra.Int64ToNumeric(int64(account.XP)),
		account.Banned,
		account.BanReason,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// UpdateBalances applies deltas with server-side arithmetic so concurrent
// transactions never clobber each other's reads.
func (r *accountRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta domain.BalanceUpdate) (*domain.Account, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{}
	argIdx := 1

	if delta.HasGemsDelta() {
		setClauses = append(setClauses, fmt.Sprintf("gems = gems + $%d", argIdx))
		args = append(args, infra.Int64ToNumeric(delta.Gems))
		argIdx++
	}
	if delta.HasCrystalsDelta() {
		setClauses = append(setClauses, fmt.Sprintf("crystals = crystals + $%d", argIdx))
		args = append(args, infra.Int64ToNumeric(delta.Crystals))
		argIdx++
	}
	if delta.HasXPDelta() {
		setClauses = append(setClauses, fmt.Sprintf("xp = xp + $%d", argIdx))
		args = append(args, infra.Int64ToNumeric(delta.XP))
		argIdx++
	}

	args = append(args, accountID)
	query := fmt.Sprintf(`
		UPDATE accounts SET %s
		WHERE id = $%d
		RETURNING `+accountColumns,
		strings.Join(setClauses, ", "), argIdx)

	row := tx.QueryRow(ctx, query, args...)
	return scanAccount(row)
}

func (r *accountRepo) UpdateRole(ctx context.Context, db DBTX, id uuid.UUID, role domain.Role) error {
	_, err := db.Exec(ctx, `
		UPDATE accounts SET role = $1, updated_at = now() WHERE id = $2`,
		string(role), id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

func (r *accountRepo) SetBanned(ctx context.Context, db DBTX, id uuid.UUID, banned bool, reason string) error {
	_, err := db.Exec(ctx, `
		UPDATE accounts SET banned = $1, ban_reason = $2, updated_at = now() WHERE id = $3`,
		banned, reason, id)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	return nil
}

func (r *accountRepo) Count(ctx context.Context, db DBTX) (int64, error) {
	var count int64
	if err := db.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func (r *accountRepo) FindOwner(ctx context.Context, db DBTX) (*domain.Account, error) {
	row := db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE role = $1`, string(domain.RoleOwner))
	return scanAccount(row)
}

func (r *accountRepo) Search(ctx context.Context, db DBTX, query string, cursor *string, limit int) ([]domain.Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	pattern := "%" + query + "%"
	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = db.Query(ctx, `
			SELECT `+accountColumns+`
			FROM accounts
			WHERE username ILIKE $1
			  AND (created_at, id) < ((SELECT created_at, id FROM accounts WHERE id = $2))
			ORDER BY created_at DESC, id DESC
			LIMIT $3`, pattern, *cursor, limit)
	} else {
		rows, err = db.Query(ctx, `
			SELECT `+accountColumns+`
			FROM accounts
			WHERE username ILIKE $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, pattern, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *accountRepo) Leaderboard(ctx context.Context, db DBTX, orderBy string, limit int) ([]domain.Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	column := "gems"
	if orderBy == "xp" {
		column = "xp"
	}

	rows, err := db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE banned = false
		ORDER BY `+column+` DESC, created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var role string
	var gemsNum, crystalsNum, xpNum pgtype.Numeric
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &gemsNum, &crystalsNum, &xpNum,
		&a.Banned, &a.BanReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Role = domain.Role(role)

	gems, convErr := infra.NumericToInt64(gemsNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert gems: %w", convErr)
	}
	crystals, convErr := infra.NumericToInt64(crystalsNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert crystals: %w", convErr)
	}
	xp, convErr := infra.NumericToInt64(xpNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert xp: %w", convErr)
	}
	a.Gems = domain.Amount(gems)
	a.Crystals = domain.Amount(crystals)
	a.XP = domain.Amount(xp)

	return &a, nil
}
