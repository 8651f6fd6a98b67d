package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gemcade/platform/internal/auth"
	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/service"
)

// GamesHandler handles the mines, plinko and crash endpoints.
type GamesHandler struct {
	games *service.GamesService
}

// NewGamesHandler creates a new GamesHandler.
func NewGamesHandler(games *service.GamesService) *GamesHandler {
	return &GamesHandler{games: games}
}

// StartMines handles POST /games/mines.
func (h *GamesHandler) StartMines(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	var input service.StartMinesInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	input.IdempotencyKey = r.Header.Get("Idempotency-Key")

	round, err := h.games.StartMines(r.Context(), account.ID, input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, round)
}

type revealRequest struct {
	Cell int `json:"cell"`
}

// RevealMine handles POST /games/mines/{id}/reveal.
func (h *GamesHandler) RevealMine(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	wagerID, err := wagerIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req revealRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	round, err := h.games.RevealMine(r.Context(), account.ID, wagerID, req.Cell)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, round)
}

// CashoutMines handles POST /games/mines/{id}/cashout.
func (h *GamesHandler) CashoutMines(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	wagerID, err := wagerIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	round, err := h.games.CashoutMines(r.Context(), account.ID, wagerID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, round)
}

// DropPlinko handles POST /games/plinko.
func (h *GamesHandler) DropPlinko(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	var input service.DropPlinkoInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	input.IdempotencyKey = r.Header.Get("Idempotency-Key")

	round, err := h.games.DropPlinko(r.Context(), account.ID, input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, round)
}

// StartCrash handles POST /games/crash.
func (h *GamesHandler) StartCrash(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	var input service.StartCrashInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	input.IdempotencyKey = r.Header.Get("Idempotency-Key")

	round, err := h.games.StartCrash(r.Context(), account.ID, input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, round)
}

// CashoutCrash handles POST /games/crash/{id}/cashout.
func (h *GamesHandler) CashoutCrash(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	wagerID, err := wagerIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	round, err := h.games.CashoutCrash(r.Context(), account.ID, wagerID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, round)
}

// GetWager handles GET /games/mines/{id} and GET /games/crash/{id}.
func (h *GamesHandler) GetWager(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if account == nil {
		RespondError(w, domain.ErrUnauthorized("no account in context"))
		return
	}

	wagerID, err := wagerIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	round, err := h.games.GetWager(r.Context(), account.ID, wagerID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, round)
}

func wagerIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid wager id")
	}
	return id, nil
}
