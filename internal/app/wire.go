package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemcade/platform/internal/auth"
	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/guard"
	"github.com/gemcade/platform/internal/handler"
	adminhandler "github.com/gemcade/platform/internal/handler/admin"
	"github.com/gemcade/platform/internal/ledger"
	"github.com/gemcade/platform/internal/policy"
	"github.com/gemcade/platform/internal/projection"
	"github.com/gemcade/platform/internal/provider"
	"github.com/gemcade/platform/internal/repository"
	"github.com/gemcade/platform/internal/service"
	"github.com/gemcade/platform/internal/settlement"
)

// RouterDeps holds all dependencies needed by NewRouter. Zero-valued
// tuning fields fall back to production defaults so tests only have to
// supply Pool and Logger.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	SessionTTL         time.Duration
	SessionHighRiskTTL time.Duration

	CrashMaxMultiplier float64
	CrashHouseEdge     float64

	WagerLimits policy.WagerLimitPolicy

	CORSAllowedOrigins string
	RandomOrgAPIKey    string
}

func (d *RouterDeps) applyDefaults() {
	if d.SessionTTL <= 0 {
		d.SessionTTL = 30 * 24 * time.Hour
	}
	if d.SessionHighRiskTTL <= 0 {
		d.SessionHighRiskTTL = 24 * time.Hour
	}
	if d.CrashMaxMultiplier <= 0 {
		d.CrashMaxMultiplier = 1000
	}
	if d.CrashHouseEdge <= 0 {
		d.CrashHouseEdge = 0.04
	}
	if d.WagerLimits == (policy.WagerLimitPolicy{}) {
		d.WagerLimits = policy.DefaultWagerLimits()
	}
	if d.CORSAllowedOrigins == "" {
		d.CORSAllowedOrigins = "*"
	}
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	deps.applyDefaults()
	pool := deps.Pool
	logger := deps.Logger

	// Repositories
	accountRepo := repository.NewAccountRepository()
	wagerRepo := repository.NewWagerRepository()
	ledgerRepo := repository.NewLedgerRepository()
	sessionRepo := repository.NewSessionRepository()
	auditRepo := repository.NewAuditRepository()
	settingsRepo := repository.NewSettingsRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Ledger engine and settlement
	engine := ledger.NewEngine(accountRepo, ledgerRepo, outboxRepo)
	wagerSettle := settlement.NewWagerSettlement(engine, wagerRepo, outboxRepo)
	rewardSettle := settlement.NewRewardSettlement(engine)

	// Sessions and projections
	sessions := auth.NewSessionManager(pool, sessionRepo, deps.SessionTTL, deps.SessionHighRiskTTL)
	store := projection.NewInMemoryStore()

	// External entropy, behind a breaker so an outage never blocks wagers
	breaker := guard.NewCircuitBreaker(5, 30*time.Second)
	entropy := provider.NewRandomOrgClient(deps.RandomOrgAPIKey, logger, breaker)

	// Services
	authSvc := service.NewAuthService(pool, accountRepo, settingsRepo, outboxRepo, engine, sessions, logger)
	gamesSvc := service.NewGamesService(pool, wagerRepo, outboxRepo, engine, wagerSettle, entropy, deps.WagerLimits,
		service.GamesConfig{CrashMaxMultiplier: deps.CrashMaxMultiplier, CrashHouseEdge: deps.CrashHouseEdge}, logger)
	walletSvc := service.NewWalletService(pool, accountRepo, wagerRepo, ledgerRepo, settingsRepo, engine, rewardSettle, store, logger)
	adminSvc := service.NewAdminService(pool, accountRepo, wagerRepo, ledgerRepo, auditRepo, settingsRepo, outboxRepo, engine, sessions, store, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	accountHandler := handler.NewAccountHandler(walletSvc, gamesSvc)
	gamesHandler := handler.NewGamesHandler(gamesSvc)
	fairHandler := handler.NewFairnessHandler(gamesSvc)
	feedHandler := handler.NewFeedHandler(walletSvc)

	// Admin handlers
	accountsAdmin := adminhandler.NewAccountsHandler(adminSvc)
	moderationAdmin := adminhandler.NewModerationHandler(adminSvc)
	reportsAdmin := adminhandler.NewReportsHandler(adminSvc)
	settingsAdmin := adminhandler.NewSettingsHandler(adminSvc)
	transferAdmin := adminhandler.NewTransferHandler(adminSvc)

	// Route guards
	authenticate := auth.Authenticate(sessions, accountRepo, pool)
	maintenanceOff := auth.RequireMaintenanceOff(cachedSettingsLoader(pool, settingsRepo, store, logger))
	authLimiter := handler.RateLimit(guard.NewRateLimiter(10, time.Minute))
	wagerLimiter := handler.RateLimit(guard.NewRateLimiter(60, time.Minute))

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(deps.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter).Post("/register", authHandler.Register)
		r.With(authLimiter).Post("/login", authHandler.Login)
		r.With(authenticate).Post("/logout", authHandler.Logout)
	})

	// Public fairness verification and feeds
	r.Post("/fair/verify", fairHandler.Verify)
	r.Get("/leaderboard", feedHandler.Leaderboard)
	r.Get("/feed/wins", feedHandler.Wins)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/me", accountHandler.GetMe)
		r.Get("/me/wagers", accountHandler.ListWagers)
		r.Get("/me/ledger", accountHandler.History)

		// Wallet and gameplay: banned accounts and maintenance mode are
		// rejected here; profile reads above stay available to both.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireActive())
			r.Use(maintenanceOff)

			r.Post("/me/daily", accountHandler.ClaimDaily)
			r.Post("/me/exchange", accountHandler.Exchange)

			r.Route("/games", func(r chi.Router) {
				r.Use(wagerLimiter)

				r.Route("/mines", func(r chi.Router) {
					r.Post("/", gamesHandler.StartMines)
					r.Get("/{id}", gamesHandler.GetWager)
					r.Post("/{id}/reveal", gamesHandler.RevealMine)
					r.Post("/{id}/cashout", gamesHandler.CashoutMines)
				})

				r.Post("/plinko", gamesHandler.DropPlinko)

				r.Route("/crash", func(r chi.Router) {
					r.Post("/", gamesHandler.StartCrash)
					r.Get("/{id}", gamesHandler.GetWager)
					r.Post("/{id}/cashout", gamesHandler.CashoutCrash)
				})
			})
		})
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(auth.RequireRole(domain.RoleAdmin))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accountsAdmin.Search)
			r.Get("/{id}", accountsAdmin.Get)
			r.Patch("/{id}/role", moderationAdmin.ChangeRole)
			r.Patch("/{id}/ban", moderationAdmin.SetBan)
			r.With(auth.RequireRole(domain.RoleOwner)).Post("/{id}/adjust", accountsAdmin.Adjust)
		})

		r.Get("/audit", reportsAdmin.AuditLog)
		r.Get("/reports/overview", reportsAdmin.Stats)

		// Owner-only
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleOwner))
			r.Get("/settings", settingsAdmin.Get)
			r.Put("/settings", settingsAdmin.Update)
			r.Post("/transfer-ownership", transferAdmin.Transfer)
		})
	})

	return r
}

// cachedSettingsLoader reads site settings through the projection store
// so the maintenance gate costs a map lookup, not a query, per request.
func cachedSettingsLoader(pool *pgxpool.Pool, settingsRepo repository.SettingsRepository, store projection.Store, logger *slog.Logger) auth.SettingsLoader {
	return func(ctx context.Context) (domain.SiteSettings, error) {
		if settings, ok := projection.CachedSiteSettings(ctx, store); ok {
			return settings, nil
		}

		settings, err := service.LoadSiteSettings(ctx, pool, settingsRepo)
		if err != nil {
			return domain.SiteSettings{}, err
		}
		if err := projection.CacheSiteSettings(ctx, store, settings); err != nil {
			logger.Warn("settings cache write failed", "error", err)
		}
		return settings, nil
	}
}
