package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gemcade/platform/internal/auth"
	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/handler"
	"github.com/gemcade/platform/internal/service"
)

// AccountsHandler handles admin account lookup and balance adjustments.
type AccountsHandler struct {
	admin *service.AdminService
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(admin *service.AdminService) *AccountsHandler {
	return &AccountsHandler{admin: admin}
}

// Search handles GET /admin/accounts?q=&cursor=&limit=.
func (h *AccountsHandler) Search(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.admin.SearchAccounts(r.Context(), r.URL.Query().Get("q"), handler.QueryCursor(r), handler.QueryLimit(r))
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

// Get handles GET /admin/accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDParam(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	detail, err := h.admin.GetAccount(r.Context(), accountID)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, detail)
}

// Adjust handles POST /admin/accounts/{id}/adjust.
func (h *AccountsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
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

	var input service.AdjustInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.admin.AdjustBalance(r.Context(), actor, accountID, input)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, result)
}

func accountIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid account id")
	}
	return id, nil
}

func actorFromContext(r *http.Request) (*domain.Account, error) {
	actor := auth.AccountFromContext(r.Context())
	if actor == nil {
		return nil, domain.ErrUnauthorized("no account in context")
	}
	return actor, nil
}
