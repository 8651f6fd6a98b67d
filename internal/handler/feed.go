package handler

import (
	"net/http"

	"github.com/gemcade/platform/internal/service"
)

// FeedHandler handles the public leaderboard and recent-wins endpoints.
type FeedHandler struct {
	wallet *service.WalletService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(wallet *service.WalletService) *FeedHandler {
	return &FeedHandler{wallet: wallet}
}

// Leaderboard handles GET /leaderboard?by=gems|xp&limit=n.
func (h *FeedHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.wallet.Leaderboard(r.Context(), r.URL.Query().Get("by"), QueryLimit(r))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, snapshot)
}

// Wins handles GET /feed/wins?limit=n: recent notable payouts.
func (h *FeedHandler) Wins(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.wallet.WinsFeed(r.Context(), QueryLimit(r))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, snapshot)
}
