package admin

import (
	"net/http"

	"github.com/gemcade/platform/internal/handler"
	"github.com/gemcade/platform/internal/service"
)

// ReportsHandler handles admin reporting endpoints.
type ReportsHandler struct {
	admin *service.AdminService
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(admin *service.AdminService) *ReportsHandler {
	return &ReportsHandler{admin: admin}
}

// Stats handles GET /admin/reports/overview.
func (h *ReportsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, stats)
}

// AuditLog handles GET /admin/audit?cursor=&limit=.
func (h *ReportsHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	actions, err := h.admin.ListAuditLog(r.Context(), handler.QueryCursor(r), handler.QueryLimit(r))
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]any{"actions": actions})
}
