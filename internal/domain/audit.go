package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AdminActionType enumerates audited administrative actions.
type AdminActionType string

const (
	AdminActionRoleChange        AdminActionType = "role_change"
	AdminActionBan               AdminActionType = "ban"
	AdminActionUnban             AdminActionType = "unban"
	AdminActionAdjustBalance     AdminActionType = "adjust_balance"
	AdminActionTransferOwnership AdminActionType = "transfer_ownership"
	AdminActionUpdateSettings    AdminActionType = "update_settings"
)

// AdminAction is one append-only admin_actions row. Rows are never
// mutated or deleted.
type AdminAction struct {
	ID        uuid.UUID       `json:"id"`
	ActorID   uuid.UUID       `json:"actor_id"`
	Action    AdminActionType `json:"action"`
	TargetID  *uuid.UUID      `json:"target_id,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewAdminAction builds an audit row; detail marshals to the jsonb payload.
func NewAdminAction(actorID uuid.UUID, action AdminActionType, targetID *uuid.UUID, detail any) AdminAction {
	payload, _ := json.Marshal(detail)
	return AdminAction{
		ID:       uuid.New(),
		ActorID:  actorID,
		Action:   action,
		TargetID: targetID,
		Detail:   payload,
	}
}
