package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/prediction-pool/services"
)

type AuditHandler struct {
	auditService services.AuditService
}

func NewAuditHandler(auditService services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List - GET /audit?entity_type=&entity_id=&limit=&offset=
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	input := services.AuditListInput{}
	if v := query.Get("entity_type"); v != "" {
		input.EntityType = &v
	}
	if v := query.Get("entity_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, errNamedParamRequired("valid entity_id"))
			return
		}
		input.EntityID = &id
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			badRequestResponse(w, r, errNamedParamRequired("valid limit"))
			return
		}
		input.Limit = limit
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			badRequestResponse(w, r, errNamedParamRequired("valid offset"))
			return
		}
		input.Offset = offset
	}

	entries, err := h.auditService.List(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entries": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
