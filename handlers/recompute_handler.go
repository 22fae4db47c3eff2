package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/prediction-pool/middleware"
	"github.com/Dosada05/prediction-pool/services"
	"github.com/go-chi/chi/v5"
)

type RecomputeHandler struct {
	recomputeService services.RecomputeService
}

func NewRecomputeHandler(recomputeService services.RecomputeService) *RecomputeHandler {
	return &RecomputeHandler{recomputeService: recomputeService}
}

// Run - POST /tournaments/{tournamentID}/recompute/{category}
// category: matches | groups | winner | topscorer
func (h *RecomputeHandler) Run(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var summary *services.RecomputeSummary
	switch category := chi.URLParam(r, "category"); category {
	case "matches":
		summary, err = h.recomputeService.CalculateMatchPoints(r.Context(), tournamentID, actorID)
	case "groups":
		summary, err = h.recomputeService.CalculateGroupPoints(r.Context(), tournamentID, actorID)
	case "winner":
		summary, err = h.recomputeService.CalculateWinnerPoints(r.Context(), tournamentID, actorID)
	case "topscorer":
		summary, err = h.recomputeService.CalculateTopscorerPoints(r.Context(), tournamentID, actorID)
	default:
		badRequestResponse(w, r, errors.New("category must be one of: matches, groups, winner, topscorer"))
		return
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
