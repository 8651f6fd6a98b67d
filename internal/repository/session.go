package repository

import (
	"context"
	"fmt"

	"github.com/gemcade/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type sessionRepo struct{}

// NewSessionRepository returns a pgx-backed SessionRepository.
func NewSessionRepository() SessionRepository {
	return &sessionRepo{}
}

func (r *sessionRepo) Create(ctx context.Context, db DBTX, s *domain.Session) error {
	_, err := db.Exec(ctx, `
		INSERT INTO sessions (token, account_id, ip_address, user_agent, risk_level, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.Token, s.AccountID, s.IPAddress, s.UserAgent, s.RiskLevel, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepo) FindByToken(ctx context.Context, db DBTX, token string) (*domain.Session, error) {
	var s domain.Session
	err := db.QueryRow(ctx, `
		SELECT token, account_id, ip_address, user_agent, risk_level, created_at, expires_at
		FROM sessions WHERE token = $1`, token).
		Scan(&s.Token, &s.AccountID, &s.IPAddress, &s.UserAgent, &s.RiskLevel, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) Delete(ctx context.Context, db DBTX, token string) error {
	_, err := db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *sessionRepo) DeleteByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) (int64, error) {
	tag, err := db.Exec(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, fmt.Errorf("delete account sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, db DBTX) (int64, error) {
	tag, err := db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *sessionRepo) CountActiveByIP(ctx context.Context, db DBTX, ip string) (int, error) {
	var n int
	err := db.QueryRow(ctx, `
		SELECT count(*) FROM sessions WHERE ip_address = $1 AND expires_at > now()`, ip).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions by ip: %w", err)
	}
	return n, nil
}
