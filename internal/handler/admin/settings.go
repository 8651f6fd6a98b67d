package admin

import (
	"net/http"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/handler"
	"github.com/gemcade/platform/internal/service"
)

// SettingsHandler handles the owner-only site settings endpoints.
type SettingsHandler struct {
	admin *service.AdminService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(admin *service.AdminService) *SettingsHandler {
	return &SettingsHandler{admin: admin}
}

// Get handles GET /admin/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.admin.GetSettings(r.Context())
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, settings)
}

// Update handles PUT /admin/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var settings domain.SiteSettings
	if err := handler.DecodeJSON(r, &settings); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	updated, err := h.admin.UpdateSettings(r.Context(), actor, settings)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, updated)
}
