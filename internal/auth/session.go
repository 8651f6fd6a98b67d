package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/policy"
	"github.com/gemcade/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CookieName is the session cookie issued on login.
const CookieName = "gemcade_session"

// tokenBytes is the entropy of a raw session token (hex-encoded to 64 chars).
const tokenBytes = 32

// SessionManager issues and resolves opaque bearer tokens backed by the
// sessions table. Only the SHA-256 digest of a token is stored, so a read
// of the table cannot hijack sessions. Every request resolves its session
// and reloads the account, which is how bans and role changes bite on the
// very next call.
type SessionManager struct {
	pool        *pgxpool.Pool
	sessions    repository.SessionRepository
	ttl         time.Duration
	highRiskTTL time.Duration
}

// NewSessionManager creates a session manager. highRiskTTL caps the
// lifetime of sessions opened by high risk logins.
func NewSessionManager(pool *pgxpool.Pool, sessions repository.SessionRepository, ttl, highRiskTTL time.Duration) *SessionManager {
	return &SessionManager{
		pool:        pool,
		sessions:    sessions,
		ttl:         ttl,
		highRiskTTL: highRiskTTL,
	}
}

// Issue creates a session and returns the raw token for the cookie. The
// stored row keeps only the token digest.
func (m *SessionManager) Issue(ctx context.Context, accountID uuid.UUID, ip, userAgent string, risk policy.RiskLevel) (string, *domain.Session, error) {
	raw, err := NewToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		Token:     HashToken(raw),
		AccountID: accountID,
		IPAddress: ip,
		UserAgent: userAgent,
		RiskLevel: string(risk),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttlFor(risk)),
	}
	if err := m.sessions.Create(ctx, m.pool, session); err != nil {
		return "", nil, err
	}
	return raw, session, nil
}

// Resolve maps a raw token to its live session. Returns nil for unknown
// or expired tokens; expired rows are swept on sight.
func (m *SessionManager) Resolve(ctx context.Context, raw string) (*domain.Session, error) {
	if raw == "" {
		return nil, nil
	}
	digest := HashToken(raw)
	session, err := m.sessions.FindByToken(ctx, m.pool, digest)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	if session.Expired(time.Now()) {
		_ = m.sessions.Delete(ctx, m.pool, digest)
		return nil, nil
	}
	return session, nil
}

// Revoke deletes the session behind a raw token (logout).
func (m *SessionManager) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return m.sessions.Delete(ctx, m.pool, HashToken(raw))
}

// RevokeAccount deletes every session an account holds. Used on ban and
// on ownership transfer.
func (m *SessionManager) RevokeAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return m.sessions.DeleteByAccount(ctx, m.pool, accountID)
}

// ActiveOnIP counts live sessions from an address, a login risk signal.
func (m *SessionManager) ActiveOnIP(ctx context.Context, ip string) (int, error) {
	return m.sessions.CountActiveByIP(ctx, m.pool, ip)
}

func (m *SessionManager) ttlFor(risk policy.RiskLevel) time.Duration {
	if risk == policy.RiskHigh && m.highRiskTTL > 0 && m.highRiskTTL < m.ttl {
		return m.highRiskTTL
	}
	return m.ttl
}

// NewToken returns a fresh raw session token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken digests a raw token for storage and lookup.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
