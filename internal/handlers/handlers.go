// Package handlers implements the punishment HTTP API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"tangled.org/briar.gg/briar/internal/commands"
	"tangled.org/briar.gg/briar/internal/punishment"
)

// Handler contains all HTTP handler methods and their dependencies.
// Dependencies are injected via the constructor for better testability.
type Handler struct {
	store      punishment.Store
	dispatcher *commands.Dispatcher

	now func() time.Time
}

// NewHandler creates a new Handler with all required dependencies.
func NewHandler(store punishment.Store, dispatcher *commands.Dispatcher) *Handler {
	return &Handler{
		store:      store,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("handlers: encode response")
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func respondBadRequest(w http.ResponseWriter, errMsg string) {
	respondJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
}

func respondMethodNotAllowed(w http.ResponseWriter) {
	respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
}

func respondInternalError(w http.ResponseWriter, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}
