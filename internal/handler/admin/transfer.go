package admin

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/handler"
	"github.com/gemcade/platform/internal/service"
)

// TransferHandler handles the owner-only ownership transfer endpoint.
type TransferHandler struct {
	admin *service.AdminService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(admin *service.AdminService) *TransferHandler {
	return &TransferHandler{admin: admin}
}

type transferRequest struct {
	CandidateID uuid.UUID `json:"candidate_id"`
}

// Transfer handles POST /admin/transfer-ownership.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var req transferRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.CandidateID == uuid.Nil {
		handler.RespondError(w, domain.ErrValidation("candidate_id is required"))
		return
	}

	result, err := h.admin.TransferOwnership(r.Context(), actor, req.CandidateID)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, result)
}
