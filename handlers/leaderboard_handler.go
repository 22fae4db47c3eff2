package handlers

import (
	"net/http"

	"github.com/Dosada05/prediction-pool/services"
)

type LeaderboardHandler struct {
	rankingService services.RankingService
}

func NewLeaderboardHandler(rankingService services.RankingService) *LeaderboardHandler {
	return &LeaderboardHandler{rankingService: rankingService}
}

// GetLeaderboard - GET /pools/{poolID}/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	poolID, err := readIDParam(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	members, err := h.rankingService.GetLeaderboard(r.Context(), poolID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": members}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RebuildLeaderboard - POST /pools/{poolID}/leaderboard/rebuild
func (h *LeaderboardHandler) RebuildLeaderboard(w http.ResponseWriter, r *http.Request) {
	poolID, err := readIDParam(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.rankingService.RebuildPoolStandings(r.Context(), poolID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	members, err := h.rankingService.GetLeaderboard(r.Context(), poolID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": members}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
