package handlers

import (
	"encoding/json"
	"net/http"
)

type commandRequest struct {
	Command string `json:"command"`
}

// HandleCommands serves POST /api/v1/commands, dispatching the command
// under elevated privilege and echoing it back on success.
func (h *Handler) HandleCommands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondMethodNotAllowed(w)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		respondBadRequest(w, "Missing command")
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req.Command)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Command executed",
		"command": req.Command,
		"result":  result,
	})
}
