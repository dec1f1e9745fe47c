package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"tangled.org/briar.gg/briar/internal/metrics"
	"tangled.org/briar.gg/briar/internal/punishment"
)

// HandlePunishments dispatches /api/v1/punishments by method.
func (h *Handler) HandlePunishments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getPunishments(w, r)
	case http.MethodPost:
		h.postPunishment(w, r)
	case http.MethodDelete:
		h.deletePunishment(w, r)
	default:
		respondMethodNotAllowed(w)
	}
}

// getPunishments lists active punishments. With a playerId query param it
// returns that player's active punishment of the requested type (default
// MUTE) as a zero-or-one element list; without one it lists all active
// punishments.
func (h *Handler) getPunishments(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("playerId"); raw != "" {
		playerID, err := uuid.Parse(raw)
		if err != nil {
			respondBadRequest(w, "Invalid playerId")
			return
		}

		typ := punishment.TypeMute
		if rawType := r.URL.Query().Get("type"); rawType != "" {
			typ, err = punishment.ParseType(rawType)
			if err != nil {
				respondBadRequest(w, "Invalid type")
				return
			}
		}

		p, err := h.store.GetActivePunishment(r.Context(), playerID, typ)
		if err != nil {
			respondInternalError(w, err, "handlers: get active punishment")
			return
		}

		result := []punishment.Punishment{}
		if p != nil {
			result = append(result, *p)
		}
		respondJSON(w, http.StatusOK, result)
		return
	}

	ids, err := h.store.GetActivePunishmentIDs(r.Context())
	if err != nil {
		respondInternalError(w, err, "handlers: list active punishment ids")
		return
	}

	result := make([]punishment.Punishment, 0, len(ids))
	for _, id := range ids {
		p, err := h.store.GetPunishment(r.Context(), id)
		if err != nil {
			respondInternalError(w, err, "handlers: get punishment")
			return
		}
		if p != nil {
			result = append(result, *p)
		}
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) postPunishment(w http.ResponseWriter, r *http.Request) {
	var p punishment.Punishment
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondBadRequest(w, "Invalid punishment body")
		return
	}
	if p.PlayerID == uuid.Nil {
		respondBadRequest(w, "Missing playerId")
		return
	}
	if _, err := punishment.ParseType(string(p.Type)); err != nil {
		respondBadRequest(w, "Invalid type")
		return
	}
	if p.IssuedAt == 0 {
		p.IssuedAt = h.now().UnixMilli()
	}

	id, err := h.store.AddPunishment(r.Context(), p)
	if err != nil {
		respondInternalError(w, err, "handlers: add punishment")
		return
	}
	metrics.PunishmentsIssuedTotal.WithLabelValues(string(p.Type)).Inc()

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Punishment added.",
		"id":      id,
	})
}

func (h *Handler) deletePunishment(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("playerId")
	if raw == "" {
		respondBadRequest(w, "Missing playerId")
		return
	}
	playerID, err := uuid.Parse(raw)
	if err != nil {
		respondBadRequest(w, "Invalid playerId")
		return
	}

	typ := punishment.TypeMute
	if rawType := r.URL.Query().Get("type"); rawType != "" {
		typ, err = punishment.ParseType(rawType)
		if err != nil {
			respondBadRequest(w, "Invalid type")
			return
		}
	}

	removed, err := h.store.RemovePunishment(r.Context(), playerID, typ)
	if err != nil {
		respondInternalError(w, err, "handlers: remove punishment")
		return
	}
	if !removed {
		respondMessage(w, http.StatusNotFound, "Punishment not found.")
		return
	}
	metrics.PunishmentsRemovedTotal.WithLabelValues(string(typ)).Inc()
	respondMessage(w, http.StatusOK, "Punishment removed.")
}
