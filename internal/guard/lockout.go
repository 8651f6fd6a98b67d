package guard

import (
	"context"
	"time"

	"github.com/gemcade/platform/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// RecordAttempt inserts a login attempt row. Failures count toward the
// lockout; the row is also a risk signal for the session that follows.
func RecordAttempt(ctx context.Context, pool *pgxpool.Pool, username, ip string, success bool) {
	_, _ = pool.Exec(ctx, `
		INSERT INTO login_attempts (username, ip_address, success)
		VALUES ($1, $2, $3)`,
		username, ip, success)
}

// FailedCount returns the failed login count for a username within the
// lockout window. Zero on DB error.
func FailedCount(ctx context.Context, pool *pgxpool.Pool, username string) int {
	var count int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE lower(username) = lower($1) AND success = false
		  AND created_at > $2`,
		username, time.Now().Add(-LockoutWindow)).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}

// CheckLocked returns ErrAccountLocked if the username has >= MaxAttempts
// failed logins within the lockout window.
func CheckLocked(ctx context.Context, pool *pgxpool.Pool, username string) error {
	count := FailedCount(ctx, pool, username)
	if count >= MaxAttempts {
		return domain.ErrAccountLocked("too many failed login attempts, try again later")
	}
	return nil
}
