package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type evidenceRequest struct {
	PunishmentID *int64 `json:"punishmentId"`
	Evidence     string `json:"evidence"`
}

// HandleEvidence dispatches /api/v1/evidence by method.
func (h *Handler) HandleEvidence(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getEvidence(w, r)
	case http.MethodPost:
		h.postEvidence(w, r)
	case http.MethodDelete:
		h.deleteEvidence(w, r)
	default:
		respondMethodNotAllowed(w)
	}
}

func (h *Handler) getEvidence(w http.ResponseWriter, r *http.Request) {
	punishmentID, err := strconv.ParseInt(r.URL.Query().Get("punishmentId"), 10, 64)
	if err != nil {
		respondBadRequest(w, "Invalid or missing punishmentId")
		return
	}

	evidence, err := h.store.GetEvidenceForPunishment(r.Context(), punishmentID)
	if err != nil {
		respondInternalError(w, err, "handlers: get evidence")
		return
	}
	respondJSON(w, http.StatusOK, evidence)
}

func (h *Handler) postEvidence(w http.ResponseWriter, r *http.Request) {
	var req evidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "Invalid evidence body")
		return
	}
	if req.PunishmentID == nil || req.Evidence == "" {
		respondBadRequest(w, "Missing punishmentId or evidence")
		return
	}

	added, err := h.store.AddEvidence(r.Context(), *req.PunishmentID, req.Evidence)
	if err != nil {
		respondInternalError(w, err, "handlers: add evidence")
		return
	}
	if !added {
		respondMessage(w, http.StatusNotFound, "Punishment not found.")
		return
	}
	respondMessage(w, http.StatusCreated, "Evidence added.")
}

func (h *Handler) deleteEvidence(w http.ResponseWriter, r *http.Request) {
	punishmentID, err := strconv.ParseInt(r.URL.Query().Get("punishmentId"), 10, 64)
	if err != nil {
		respondBadRequest(w, "Invalid or missing punishmentId")
		return
	}
	evidenceID, err := strconv.ParseInt(r.URL.Query().Get("evidenceId"), 10, 64)
	if err != nil {
		respondBadRequest(w, "Invalid or missing evidenceId")
		return
	}

	removed, err := h.store.RemoveEvidence(r.Context(), punishmentID, evidenceID)
	if err != nil {
		respondInternalError(w, err, "handlers: remove evidence")
		return
	}
	if !removed {
		respondMessage(w, http.StatusNotFound, "Evidence not found.")
		return
	}
	respondMessage(w, http.StatusOK, "Evidence removed.")
}
