package handler

import (
	"net/http"

	"github.com/blapoker/loyalty/internal/config"
)

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Leaderboard(r.Context(), config.LeaderboardLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	entries := make([]leaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = leaderboardEntry{DisplayName: u.DisplayName, TotalCheckIns: u.TotalCheckIns}
	}
	writeJSON(w, http.StatusOK, entries)
}
