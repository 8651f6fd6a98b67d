package admin

import (
	"net/http"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/handler"
	"github.com/gemcade/platform/internal/service"
)

// ModerationHandler handles role changes and bans.
type ModerationHandler struct {
	admin *service.AdminService
}

// NewModerationHandler creates a new ModerationHandler.
func NewModerationHandler(admin *service.AdminService) *ModerationHandler {
	return &ModerationHandler{admin: admin}
}

type roleRequest struct {
	Role string `json:"role"`
}

// ChangeRole handles PATCH /admin/accounts/{id}/role.
func (h *ModerationHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	accountID, err := accountIDParam(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var req roleRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	account, err := h.admin.ChangeRole(r.Context(), actor, accountID, req.Role)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, account)
}

type banRequest struct {
	Banned bool   `json:"banned"`
	Reason string `json:"reason"`
}

// SetBan handles PATCH /admin/accounts/{id}/ban.
func (h *ModerationHandler) SetBan(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	accountID, err := accountIDParam(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var req banRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	account, err := h.admin.SetBan(r.Context(), actor, accountID, req.Banned, req.Reason)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, account)
}
