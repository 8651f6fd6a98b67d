package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gemcade/platform/internal/auth"
	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/guard"
	"github.com/gemcade/platform/internal/ledger"
	"github.com/gemcade/platform/internal/policy"
	"github.com/gemcade/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// youngAccountAge is the account age below which logins score extra risk.
const youngAccountAge = 24 * time.Hour

// AuthService handles registration, login and logout.
type AuthService struct {
	pool     *pgxpool.Pool
	accounts repository.AccountRepository
	settings repository.SettingsRepository
	outbox   repository.OutboxRepository
	engine   *ledger.Engine
	sessions *auth.SessionManager
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	pool *pgxpool.Pool,
	accounts repository.AccountRepository,
	settings repository.SettingsRepository,
	outbox repository.OutboxRepository,
	engine *ledger.Engine,
	sessions *auth.SessionManager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		pool:     pool,
		accounts: accounts,
		settings: settings,
		outbox:   outbox,
		engine:   engine,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterInput holds the registration request fields.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginInput holds the login request fields.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	RiskLevel string          `json:"risk_level"`
	Account   *domain.Account `json:"account"`
}

// Register creates a new account within a single transaction. The very
// first account becomes the owner; everyone after that is a user. The
// registration bonus is credited in the same transaction as the insert so
// a new account never exists without its starting balance.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, ip, userAgent string) (*AuthResult, error) {
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	existing, err := s.accounts.FindByUsername(ctx, s.pool, input.Username)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	settings, err := LoadSiteSettings(ctx, s.pool, s.settings)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	// Bootstrap: an empty site hands the first account the owner role. A
	// partial unique index on the owner role backs this up, so a racing
	// pair of first registrations cannot both win.
	count, err := s.accounts.Count(ctx, tx)
	if err != nil {
		return nil, domain.ErrInternal("count accounts", err)
	}
	role := domain.RoleUser
	if count == 0 {
		role = domain.RoleOwner
	}

	account := &domain.Account{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.accounts.Create(ctx, tx, account); err != nil {
		return nil, domain.ErrInternal("create account", err)
	}

	if settings.RegistrationGems > 0 || settings.RegistrationCrystals > 0 {
		result, err := s.engine.ExecuteGrantReward(ctx, tx, domain.GrantRewardParams{
			AccountID:      account.ID,
			Type:           domain.EntryRegistrationBonus,
			Gems:           settings.RegistrationGems,
			Crystals:       settings.RegistrationCrystals,
			IdempotencyKey: fmt.Sprintf("register-%s", account.ID),
		})
		if err != nil {
			return nil, fmt.Errorf("registration bonus: %w", err)
		}
		account = result.Account
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewAccountCreatedEvent(account.ID, account.Username, role)); err != nil {
		return nil, domain.ErrInternal("insert account event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	risk := s.evaluateRisk(ctx, account, input.Username, ip, true)
	return s.issueSession(ctx, account, ip, userAgent, risk)
}

// Login authenticates an account and issues a session. Banned accounts may
// still log in; every mutating surface rejects them independently, and the
// client needs the ban reason to show.
func (s *AuthService) Login(ctx context.Context, input LoginInput, ip, userAgent string) (*AuthResult, error) {
	if err := guard.CheckLocked(ctx, s.pool, input.Username); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByUsername(ctx, s.pool, input.Username)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if account == nil {
		guard.RecordAttempt(ctx, s.pool, input.Username, ip, false)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		guard.RecordAttempt(ctx, s.pool, input.Username, ip, false)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	guard.RecordAttempt(ctx, s.pool, input.Username, ip, true)

	risk := s.evaluateRisk(ctx, account, input.Username, ip, false)
	return s.issueSession(ctx, account, ip, userAgent, risk)
}

// Logout revokes the presented session.
func (s *AuthService) Logout(ctx context.Context, accountID uuid.UUID, rawToken, riskLevel string) error {
	if err := s.sessions.Revoke(ctx, rawToken); err != nil {
		return domain.ErrInternal("revoke session", err)
	}
	if err := s.outbox.Insert(ctx, s.pool, domain.NewSessionEvent(accountID, false, riskLevel)); err != nil {
		s.logger.Warn("logout event insert failed", "account_id", accountID, "error", err)
	}
	return nil
}

func (s *AuthService) evaluateRisk(ctx context.Context, account *domain.Account, username, ip string, registration bool) policy.SessionRiskResult {
	shared, err := s.sessions.ActiveOnIP(ctx, ip)
	if err != nil {
		s.logger.Warn("shared ip count failed", "error", err)
		shared = 0
	}

	signals := policy.SessionRiskSignals{
		SharedIPSessions: shared,
		YoungAccount:     registration || time.Since(account.CreatedAt) < youngAccountAge,
		NewDevice:        registration,
	}
	if !registration {
		signals.AuthFailures = guard.FailedCount(ctx, s.pool, username)
	}
	return policy.EvaluateSessionRisk(signals)
}

func (s *AuthService) issueSession(ctx context.Context, account *domain.Account, ip, userAgent string, risk policy.SessionRiskResult) (*AuthResult, error) {
	raw, session, err := s.sessions.Issue(ctx, account.ID, ip, userAgent, risk.Level)
	if err != nil {
		return nil, domain.ErrInternal("issue session", err)
	}

	if err := s.outbox.Insert(ctx, s.pool, domain.NewSessionEvent(account.ID, true, string(risk.Level))); err != nil {
		s.logger.Warn("session event insert failed", "account_id", account.ID, "error", err)
	}

	if risk.Level != policy.RiskLow {
		s.logger.Info("elevated login risk",
			"account_id", account.ID, "level", risk.Level, "score", risk.Score, "flags", risk.Flags)
	}

	return &AuthResult{
		Token:     raw,
		ExpiresAt: session.ExpiresAt,
		RiskLevel: string(risk.Level),
		Account:   account,
	}, nil
}
