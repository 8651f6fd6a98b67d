package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type settingsRepo struct{}

// NewSettingsRepository returns a pgx-backed SettingsRepository.
func NewSettingsRepository() SettingsRepository {
	return &settingsRepo{}
}

func (r *settingsRepo) Get(ctx context.Context, db DBTX, key string) (json.RawMessage, error) {
	var value json.RawMessage
	err := db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (r *settingsRepo) Set(ctx context.Context, db DBTX, key string, value json.RawMessage) error {
	_, err := db.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
