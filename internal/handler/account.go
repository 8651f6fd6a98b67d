package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gemcade/platform/internal/auth"
	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/service"
)

// AccountHandler handles the authenticated profile and wallet endpoints.
type AccountHandler struct {
	wallet *service.WalletService
	games  *service.GamesService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(wallet *service.WalletService, games *service.GamesService) *AccountHandler {
	return &AccountHandler{wallet: wallet, games: games}
}

// meResponse combines the account row with derived progression fields
// for GET /me.
type meResponse struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Role        domain.Role     `json:"role"`
	Balances    domain.Balances `json:"balances"`
	Level       int             `json:"level"`
	NextLevelXP int64           `json:"next_level_xp"`
	Banned      bool            `json:"banned"`
	BanReason   string          `json:"ban_reason,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// GetMe handles GET /me, returning the current account with level progress.
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	RespondJSON(w, http.StatusOK, meResponse{
		ID:          account.ID,
		Username:    account.Username,
		Role:        account.Role,
		Balances:    account.Balances,
		Level:       account.Level(),
		NextLevelXP: domain.XPForNextLevel(int64(account.XP)),
		Banned:      account.Banned,
		BanReason:   account.BanReason,
		CreatedAt:   account.CreatedAt,
	})
}

// History handles GET /me/ledger: paginated ledger entries, newest first.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	entries, err := h.wallet.History(r.Context(), account.ID, QueryCursor(r), QueryLimit(r))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// ClaimDaily handles POST /me/daily.
func (h *AccountHandler) ClaimDaily(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	result, err := h.wallet.ClaimDaily(r.Context(), account.ID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

type exchangeRequest struct {
	Crystals int64 `json:"crystals"`
}

// Exchange handles POST /me/exchange, converting crystals into gems.
func (h *AccountHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	var req exchangeRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.wallet.Exchange(r.Context(), account.ID, req.Crystals)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// ListWagers handles GET /me/wagers: the account's recent rounds with
// unrevealed outcome data redacted.
func (h *AccountHandler) ListWagers(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	wagers, err := h.games.ListWagers(r.Context(), account.ID, QueryCursor(r), QueryLimit(r))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{"wagers": wagers})
}
