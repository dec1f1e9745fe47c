package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangled.org/briar.gg/briar/internal/punishment"
)

func TestSendPunishmentPayload(t *testing.T) {
	var received payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	exp := int64(1700000600000)
	n := NewNotifier(Config{URL: srv.URL})
	n.SendPunishment(context.Background(), punishment.Punishment{
		ID:         42,
		PlayerID:   uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Type:       punishment.TypeMute,
		Reason:     "spam",
		Expiration: &exp,
		Issuer:     "alice",
		IssuedAt:   1700000000000,
	})

	require.Len(t, received.Embeds, 1)
	e := received.Embeds[0]
	assert.Equal(t, "New Punishment Issued", e.Title)

	fields := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		fields[f.Name] = f.Value
	}
	assert.Equal(t, "42", fields["ID"])
	assert.Equal(t, "MUTE", fields["Type"])
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", fields["UUID"])
	assert.Equal(t, "spam", fields["Reason"])
	assert.Equal(t, "<t:1700000600:R>", fields["Expiry"])
	assert.Equal(t, "alice", fields["Issued By"])
	assert.Equal(t, "<t:1700000000:R>", fields["Issued At"])
}

func TestSendPunishmentPermanentAndNoReason(t *testing.T) {
	var received payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier(Config{URL: srv.URL})
	n.SendPunishment(context.Background(), punishment.Punishment{
		ID:       7,
		PlayerID: uuid.New(),
		Type:     punishment.TypeBan,
		Issuer:   "alice",
		IssuedAt: 1700000000000,
	})

	require.Len(t, received.Embeds, 1)
	fields := make(map[string]string)
	for _, f := range received.Embeds[0].Fields {
		fields[f.Name] = f.Value
	}
	assert.Equal(t, "Permanent", fields["Expiry"])
	assert.Equal(t, "No reason provided", fields["Reason"])
}

func TestSendPunishmentFailureDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewNotifier(Config{URL: srv.URL})
	n.SendPunishment(context.Background(), punishment.Punishment{ID: 1, PlayerID: uuid.New()})

	// A notifier with no URL configured is a no-op.
	disabled := NewNotifier(Config{})
	assert.False(t, disabled.Enabled())
	disabled.SendPunishment(context.Background(), punishment.Punishment{ID: 2, PlayerID: uuid.New()})
}
