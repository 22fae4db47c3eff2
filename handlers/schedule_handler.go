package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/prediction-pool/services"
)

type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

func NewScheduleHandler(scheduleService services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// Import - POST /tournaments/{tournamentID}/schedule/import
func (h *ScheduleHandler) Import(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Key string `json:"key"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Key) == "" {
		badRequestResponse(w, r, errors.New("storage key is required"))
		return
	}

	summary, err := h.scheduleService.ImportFromStorage(r.Context(), tournamentID, input.Key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
