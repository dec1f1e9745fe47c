package handlers

import (
	"net/http"
	"strconv"
)

const (
	defaultAuditLimit = 10
	maxAuditLimit     = 100
)

// HandleAuditLog serves GET /api/v1/auditlog with optional player, limit
// and offset query params. Entries come back newest first.
func (h *Handler) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondMethodNotAllowed(w)
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAuditLimit {
			respondBadRequest(w, "Invalid limit")
			return
		}
		limit = n
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondBadRequest(w, "Invalid offset")
			return
		}
		offset = n
	}

	if player := r.URL.Query().Get("player"); player != "" {
		list, err := h.store.GetAuditLogForPlayer(r.Context(), player, limit, offset)
		if err != nil {
			respondInternalError(w, err, "handlers: get audit log for player")
			return
		}
		respondJSON(w, http.StatusOK, list)
		return
	}

	list, err := h.store.GetAuditLog(r.Context(), limit, offset)
	if err != nil {
		respondInternalError(w, err, "handlers: get audit log")
		return
	}
	respondJSON(w, http.StatusOK, list)
}
