package handler

import (
	"net/http"

	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/service"
)

// FairnessHandler handles the public provably-fair verification endpoint.
type FairnessHandler struct {
	games *service.GamesService
}

// NewFairnessHandler creates a new FairnessHandler.
func NewFairnessHandler(games *service.GamesService) *FairnessHandler {
	return &FairnessHandler{games: games}
}

// Verify handles POST /fair/verify, recomputing a round's outcome from
// its revealed seeds so anyone can audit a settled wager.
func (h *FairnessHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var input service.VerifyInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.games.Verify(input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
