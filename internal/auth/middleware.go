package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	accountKey contextKey = "auth_account"
	sessionKey contextKey = "auth_session"
	tokenKey   contextKey = "auth_token"
)

// AccountFromContext extracts the authenticated account from request context.
func AccountFromContext(ctx context.Context) *domain.Account {
	account, _ := ctx.Value(accountKey).(*domain.Account)
	return account
}

// SessionFromContext extracts the resolved session from request context.
func SessionFromContext(ctx context.Context) *domain.Session {
	session, _ := ctx.Value(sessionKey).(*domain.Session)
	return session
}

// RawTokenFromContext extracts the raw bearer token, needed by logout.
func RawTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// Authenticate returns middleware that resolves the session token and
// loads the account fresh from the database. Role and ban state are
// re-read on every request rather than trusted from any cached claim.
func Authenticate(sm *SessionManager, accounts repository.AccountRepository, pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ExtractToken(r)
			if raw == "" {
				unauthorized(w, "missing session token")
				return
			}

			session, err := sm.Resolve(r.Context(), raw)
			if err != nil {
				internalError(w)
				return
			}
			if session == nil {
				unauthorized(w, "invalid or expired session")
				return
			}

			account, err := accounts.FindByID(r.Context(), pool, session.AccountID)
			if err != nil {
				internalError(w)
				return
			}
			if account == nil {
				unauthorized(w, "account no longer exists")
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, account)
			ctx = context.WithValue(ctx, sessionKey, session)
			ctx = context.WithValue(ctx, tokenKey, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that enforces a minimum role. Roles are
// totally ordered, so owner passes every gate admin passes.
func RequireRole(minimum domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := AccountFromContext(r.Context())
			if account == nil {
				unauthorized(w, "no auth context")
				return
			}
			if !account.Role.AtLeast(minimum) {
				forbidden(w, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActive returns middleware that rejects banned accounts. Mounted
// on wagering and wallet routes; banned accounts keep read access to
// their own profile so they can see the ban.
func RequireActive() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := AccountFromContext(r.Context())
			if account == nil {
				unauthorized(w, "no auth context")
				return
			}
			if account.Banned {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"code":"ACCOUNT_BANNED","message":"account is banned"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SettingsLoader returns the current site settings. Implementations may
// cache; a few seconds of staleness is acceptable for gating.
type SettingsLoader func(ctx context.Context) (domain.SiteSettings, error)

// RequireMaintenanceOff returns middleware that rejects gameplay and
// wallet writes while the site is in maintenance mode.
func RequireMaintenanceOff(load SettingsLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			settings, err := load(r.Context())
			if err != nil {
				internalError(w)
				return
			}
			if settings.MaintenanceMode {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"code":"MAINTENANCE","message":"site is under maintenance"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExtractToken pulls the raw session token from the session cookie or,
// failing that, a bearer Authorization header.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"` + msg + `"}`))
}

func forbidden(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"code":"FORBIDDEN","message":"` + msg + `"}`))
}

func internalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"code":"INTERNAL_ERROR","message":"internal error"}`))
}
