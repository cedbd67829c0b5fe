package handler

import (
	"net/http"

	"github.com/go-directory-api/internal/application/auth"
)

// RankingHandler serves the leaderboard view.
type RankingHandler struct {
	svc auth.Service
}

func NewRankingHandler(svc auth.Service) *RankingHandler {
	return &RankingHandler{svc: svc}
}

func (h *RankingHandler) Get(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Ranking(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	entries := make([]RankingEntry, len(users))
	for i := range users {
		entries[i] = RankingEntry{
			Position:  i + 1,
			UserID:    users[i].UserID,
			FirstName: users[i].FirstName,
			LastName:  users[i].LastName,
			Score:     users[i].Score,
		}
	}
	writeJSON(w, http.StatusOK, RankingEnvelope{Ranking: entries})
}
