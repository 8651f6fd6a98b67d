package repository

import (
	"context"
	"fmt"

	"github.com/gemcade/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type auditRepo struct{}

// NewAuditRepository returns a pgx-backed AuditRepository.
func NewAuditRepository() AuditRepository {
	return &auditRepo{}
}

const auditColumns = `id, actor_id, action, target_id, detail, created_at`

func (r *auditRepo) Insert(ctx context.Context, db DBTX, action *domain.AdminAction) error {
	err := db.QueryRow(ctx, `
		INSERT INTO admin_actions (id, actor_id, action, target_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		action.ID, action.ActorID, string(action.Action), action.TargetID, action.Detail).
		Scan(&action.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert admin action: %w", err)
	}
	return nil
}

func (r *auditRepo) List(ctx context.Context, db DBTX, cursor *string, limit int) ([]domain.AdminAction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = db.Query(ctx, `
			SELECT `+auditColumns+`
			FROM admin_actions
			WHERE (created_at, id) < ((SELECT created_at, id FROM admin_actions WHERE id = $1))
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, *cursor, limit)
	} else {
		rows, err = db.Query(ctx, `
			SELECT `+auditColumns+`
			FROM admin_actions
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list admin actions: %w", err)
	}
	defer rows.Close()
	return collectAdminActions(rows)
}

func (r *auditRepo) ListByTarget(ctx context.Context, db DBTX, targetID uuid.UUID, limit int) ([]domain.AdminAction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := db.Query(ctx, `
		SELECT `+auditColumns+`
		FROM admin_actions
		WHERE target_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("list admin actions by target: %w", err)
	}
	defer rows.Close()
	return collectAdminActions(rows)
}

func collectAdminActions(rows pgx.Rows) ([]domain.AdminAction, error) {
	var actions []domain.AdminAction
	for rows.Next() {
		var a domain.AdminAction
		var actionType string
		if err := rows.Scan(&a.ID, &a.ActorID, &actionType, &a.TargetID, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin action: %w", err)
		}
		a.Action = domain.AdminActionType(actionType)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
