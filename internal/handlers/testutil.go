package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"

	"tangled.org/briar.gg/briar/internal/commands"
	"tangled.org/briar.gg/briar/internal/database"
	"tangled.org/briar.gg/briar/internal/punishment"
)

// newTestHandler builds a Handler over the given mock store with a fixed
// clock.
func newTestHandler(store *database.MockStore) *Handler {
	h := NewHandler(store, commands.NewDispatcher(store, nil))
	h.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return h
}

// decodeBody unmarshals a recorded response body into v.
func decodeBody(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

// samplePunishment returns a timed mute for fixtures.
func samplePunishment(id int64) punishment.Punishment {
	exp := int64(1700000600000)
	return punishment.Punishment{
		ID:         id,
		PlayerID:   uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Type:       punishment.TypeMute,
		Reason:     "spam",
		Expiration: &exp,
		Issuer:     "alice",
		IssuedAt:   1700000000000,
	}
}
