package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gemcade/platform/internal/auth"
	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/ledger"
	"github.com/gemcade/platform/internal/policy"
	"github.com/gemcade/platform/internal/projection"
	"github.com/gemcade/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminService handles moderation, ownership transfer, balance
// adjustments, settings and reporting. Every mutation writes an
// admin_actions audit row in the same transaction.
type AdminService struct {
	pool     *pgxpool.Pool
	accounts repository.AccountRepository
	wagers   repository.WagerRepository
	entries  repository.LedgerRepository
	audit    repository.AuditRepository
	settings repository.SettingsRepository
	outbox   repository.OutboxRepository
	engine   *ledger.Engine
	sessions *auth.SessionManager
	store    projection.Store
	logger   *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(
	pool *pgxpool.Pool,
	accounts repository.AccountRepository,
	wagers repository.WagerRepository,
	entries repository.LedgerRepository,
	audit repository.AuditRepository,
	settings repository.SettingsRepository,
	outbox repository.OutboxRepository,
	engine *ledger.Engine,
	sessions *auth.SessionManager,
	store projection.Store,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		pool:     pool,
		accounts: accounts,
		wagers:   wagers,
		entries:  entries,
		audit:    audit,
		settings: settings,
		outbox:   outbox,
		engine:   engine,
		sessions: sessions,
		store:    store,
		logger:   logger,
	}
}

// SearchAccounts lists accounts filtered by a username fragment.
func (s *AdminService) SearchAccounts(ctx context.Context, query string, cursor *string, limit int) ([]domain.Account, error) {
	list, err := s.accounts.Search(ctx, s.pool, query, cursor, limit)
	if err != nil {
		return nil, domain.ErrInternal("search accounts", err)
	}
	return list, nil
}

// AccountDetail is the admin view of one account.
type AccountDetail struct {
	Account       *domain.Account      `json:"account"`
	Level         int                  `json:"level"`
	RecentActions []domain.AdminAction `json:"recent_actions"`
}

// GetAccount returns one account with its recent moderation history.
func (s *AdminService) GetAccount(ctx context.Context, id uuid.UUID) (*AccountDetail, error) {
	account, err := s.accounts.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if account == nil {
		return nil, domain.ErrNotFound("account", id.String())
	}
	actions, err := s.audit.ListByTarget(ctx, s.pool, id, 10)
	if err != nil {
		return nil, domain.ErrInternal("list audit", err)
	}
	return &AccountDetail{Account: account, Level: account.Level(), RecentActions: actions}, nil
}

// ChangeRole sets the target's role after the permission matrix signs off.
func (s *AdminService) ChangeRole(ctx context.Context, actor *domain.Account, targetID uuid.UUID, newRole string) (*domain.Account, error) {
	role, err := domain.ParseRole(newRole)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	target, err := s.engine.LockAccountForUpdate(ctx, tx, targetID)
	if err != nil {
		return nil, err
	}
	decision := domain.ValidateRoleTransition(actor.Role, target.Role, role, actor.ID == targetID)
	if !decision.Allowed {
		return nil, domain.ErrForbidden(decision.Reason)
	}
	if target.Role == role {
		return target, nil
	}

	if err := s.accounts.UpdateRole(ctx, tx, targetID, role); err != nil {
		return nil, domain.ErrInternal("update role", err)
	}
	action := domain.NewAdminAction(actor.ID, domain.AdminActionRoleChange, &targetID, map[string]string{
		"from": string(target.Role),
		"to":   string(role),
	})
	if err := s.audit.Insert(ctx, tx, &action); err != nil {
		return nil, domain.ErrInternal("insert audit", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewRoleChangedEvent(actor.ID, targetID, target.Role, role)); err != nil {
		return nil, domain.ErrInternal("insert role event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	target.Role = role
	return target, nil
}

// SetBan flips the target's banned flag. Banning revokes every live
// session the target holds once the flag is committed.
func (s *AdminService) SetBan(ctx context.Context, actor *domain.Account, targetID uuid.UUID, banned bool, reason string) (*domain.Account, error) {
	if banned && reason == "" {
		return nil, domain.ErrValidation("ban reason is required")
	}
	if !banned {
		reason = ""
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	target, err := s.engine.LockAccountForUpdate(ctx, tx, targetID)
	if err != nil {
		return nil, err
	}
	decision := domain.ValidateBanChange(actor.Role, target.Role, actor.ID == targetID)
	if !decision.Allowed {
		return nil, domain.ErrForbidden(decision.Reason)
	}
	if target.Banned == banned {
		return target, nil
	}

	if err := s.accounts.SetBanned(ctx, tx, targetID, banned, reason); err != nil {
		return nil, domain.ErrInternal("set banned", err)
	}
	actionType := domain.AdminActionBan
	if !banned {
		actionType = domain.AdminActionUnban
	}
	action := domain.NewAdminAction(actor.ID, actionType, &targetID, map[string]string{"reason": reason})
	if err := s.audit.Insert(ctx, tx, &action); err != nil {
		return nil, domain.ErrInternal("insert audit", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewBanChangedEvent(actor.ID, targetID, banned, reason)); err != nil {
		return nil, domain.ErrInternal("insert ban event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if banned {
		if n, rerr := s.sessions.RevokeAccount(ctx, targetID); rerr != nil {
			s.logger.Warn("session revoke after ban failed", "target_id", targetID, "error", rerr)
		} else if n > 0 {
			s.logger.Info("sessions revoked after ban", "target_id", targetID, "count", n)
		}
	}

	target.Banned = banned
	target.BanReason = reason
	return target, nil
}

// AdjustInput holds an admin balance adjustment request.
type AdjustInput struct {
	Gems     int64  `json:"gems"`
	Crystals int64  `json:"crystals"`
	Reason   string `json:"reason"`
}

// AdjustBalance applies a signed balance correction to the target. The
// same rank rules as moderation apply: admins only touch accounts they
// outrank.
func (s *AdminService) AdjustBalance(ctx context.Context, actor *domain.Account, targetID uuid.UUID, input AdjustInput) (*domain.CommandResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	target, err := s.engine.LockAccountForUpdate(ctx, tx, targetID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleAdmin && target.Role.AtLeast(domain.RoleAdmin) {
		return nil, domain.ErrForbidden("admins cannot modify admin or owner accounts")
	}

	result, err := s.engine.ExecuteAdminAdjust(ctx, tx, domain.AdminAdjustParams{
		AccountID: targetID,
		ActorID:   actor.ID,
		Gems:      input.Gems,
		Crystals:  input.Crystals,
		Reason:    input.Reason,
	})
	if err != nil {
		return nil, err
	}
	action := domain.NewAdminAction(actor.ID, domain.AdminActionAdjustBalance, &targetID, map[string]any{
		"gems":     input.Gems,
		"crystals": input.Crystals,
		"reason":   input.Reason,
	})
	if err := s.audit.Insert(ctx, tx, &action); err != nil {
		return nil, domain.ErrInternal("insert audit", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}
	return result, nil
}

// TransferResult reports both sides of an ownership transfer.
type TransferResult struct {
	PreviousOwner *domain.Account `json:"previous_owner"`
	NewOwner      *domain.Account `json:"new_owner"`
}

// TransferOwnership demotes the current owner to admin and then promotes
// the candidate, in that order within one transaction so the single-owner
// index never sees two owners. The candidate receives the configured
// transfer bonus.
func (s *AdminService) TransferOwnership(ctx context.Context, actor *domain.Account, candidateID uuid.UUID) (*TransferResult, error) {
	if actor.Role != domain.RoleOwner {
		return nil, domain.ErrForbidden("only the owner can transfer ownership")
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

	// Lock both rows in ID order so concurrent transfers cannot deadlock.
	firstID, secondID := actor.ID, candidateID
	if bytes.Compare(candidateID[:], actor.ID[:]) < 0 {
		firstID, secondID = candidateID, actor.ID
	}
	first, err := s.accounts.LockForUpdate(ctx, tx, firstID)
	if err != nil {
		return nil, domain.ErrInternal("lock account", err)
	}
	second, err := s.accounts.LockForUpdate(ctx, tx, secondID)
	if err != nil {
		return nil, domain.ErrInternal("lock account", err)
	}

	owner, candidate := first, second
	if owner == nil || owner.ID != actor.ID {
		owner, candidate = second, first
	}
	if owner == nil || owner.Role != domain.RoleOwner {
		return nil, domain.ErrConflict("ownership changed concurrently")
	}

	status := policy.EvaluateTransferCandidate(owner, candidate)
	if !status.Exists {
		return nil, domain.ErrNotFound("account", candidateID.String())
	}
	if !status.IsEligible() {
		return nil, domain.ErrValidation(status.Reason())
	}

	// Demote before promote: between the two updates the table holds zero
	// owners, never two.
	if err := s.accounts.UpdateRole(ctx, tx, owner.ID, domain.RoleAdmin); err != nil {
		return nil, domain.ErrInternal("demote owner", err)
	}
	if err := s.accounts.UpdateRole(ctx, tx, candidate.ID, domain.RoleOwner); err != nil {
		return nil, domain.ErrInternal("promote candidate", err)
	}

	if settings.TransferBonusGems > 0 || settings.TransferBonusCrystals > 0 {
		meta, _ := json.Marshal(map[string]string{"previous_owner": owner.ID.String()})
		result, gerr := s.engine.ExecuteGrantReward(ctx, tx, domain.GrantRewardParams{
			AccountID:      candidate.ID,
			Type:           domain.EntryTransferBonus,
			Gems:           settings.TransferBonusGems,
			Crystals:       settings.TransferBonusCrystals,
			IdempotencyKey: fmt.Sprintf("transfer-%s-%d", candidate.ID, time.Now().UnixNano()),
			Metadata:       meta,
		})
		if gerr != nil {
			return nil, fmt.Errorf("transfer bonus: %w", gerr)
		}
		candidate = result.Account
	}

	action := domain.NewAdminAction(actor.ID, domain.AdminActionTransferOwnership, &candidateID, map[string]string{
		"previous_owner": owner.ID.String(),
		"new_owner":      candidate.ID.String(),
	})
	if err := s.audit.Insert(ctx, tx, &action); err != nil {
		return nil, domain.ErrInternal("insert audit", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewOwnershipTransferredEvent(owner.ID, candidate.ID)); err != nil {
		return nil, domain.ErrInternal("insert transfer event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	owner.Role = domain.RoleAdmin
	candidate.Role = domain.RoleOwner
	return &TransferResult{PreviousOwner: owner, NewOwner: candidate}, nil
}

// SiteStats is the admin reporting snapshot.
type SiteStats struct {
	Accounts         int64              `json:"accounts"`
	Wagers           *domain.WagerStats `json:"wagers"`
	DailyRewardsPaid int64              `json:"daily_rewards_paid"`
}

// Stats aggregates site-wide totals.
func (s *AdminService) Stats(ctx context.Context) (*SiteStats, error) {
	accounts, err := s.accounts.Count(ctx, s.pool)
	if err != nil {
		return nil, domain.ErrInternal("count accounts", err)
	}
	wagers, err := s.wagers.Stats(ctx, s.pool)
	if err != nil {
		return nil, domain.ErrInternal("wager stats", err)
	}
	rewards, err := s.entries.DailySumByType(ctx, s.pool, domain.EntryDailyReward)
	if err != nil {
		return nil, domain.ErrInternal("reward sum", err)
	}
	return &SiteStats{Accounts: accounts, Wagers: wagers, DailyRewardsPaid: rewards}, nil
}

// GetSettings returns the current site settings.
func (s *AdminService) GetSettings(ctx context.Context) (domain.SiteSettings, error) {
	return LoadSiteSettings(ctx, s.pool, s.settings)
}

// UpdateSettings replaces the site settings. Owner only.
func (s *AdminService) UpdateSettings(ctx context.Context, actor *domain.Account, settings domain.SiteSettings) (domain.SiteSettings, error) {
	if actor.Role != domain.RoleOwner {
		return domain.SiteSettings{}, domain.ErrForbidden("only the owner can change settings")
	}
	if err := settings.Validate(); err != nil {
		return domain.SiteSettings{}, err
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return domain.SiteSettings{}, domain.ErrInternal("encode settings", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.SiteSettings{}, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.settings.Set(ctx, tx, domain.SettingsKeySite, raw); err != nil {
		return domain.SiteSettings{}, domain.ErrInternal("store settings", err)
	}
	action := domain.NewAdminAction(actor.ID, domain.AdminActionUpdateSettings, nil, settings)
	if err := s.audit.Insert(ctx, tx, &action); err != nil {
		return domain.SiteSettings{}, domain.ErrInternal("insert audit", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.SiteSettings{}, domain.ErrInternal("commit tx", err)
	}

	if err := projection.InvalidateSiteSettings(ctx, s.store); err != nil {
		s.logger.Warn("settings cache invalidation failed", "error", err)
	}
	return settings, nil
}

// ListAuditLog returns admin actions, newest first.
func (s *AdminService) ListAuditLog(ctx context.Context, cursor *string, limit int) ([]domain.AdminAction, error) {
	list, err := s.audit.List(ctx, s.pool, cursor, limit)
	if err != nil {
		return nil, domain.ErrInternal("list audit", err)
	}
	return list, nil
}

// LoadSiteSettings reads the settings row, falling back to defaults when
// the row is absent or partial.
func LoadSiteSettings(ctx context.Context, db repository.DBTX, repo repository.SettingsRepository) (domain.SiteSettings, error) {
	raw, err := repo.Get(ctx, db, domain.SettingsKeySite)
	if err != nil {
		return domain.SiteSettings{}, domain.ErrInternal("load settings", err)
	}
	settings := domain.DefaultSiteSettings()
	if raw == nil {
		return settings, nil
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return domain.SiteSettings{}, domain.ErrInternal("decode settings", err)
	}
	return settings, nil
}
