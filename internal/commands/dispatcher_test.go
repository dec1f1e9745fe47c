package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangled.org/briar.gg/briar/internal/database"
	"tangled.org/briar.gg/briar/internal/punishment"
)

func fixedNow() time.Time {
	return time.UnixMilli(1700000000000)
}

func TestDispatchMute(t *testing.T) {
	playerID := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	var added punishment.Punishment
	var audited punishment.AuditEntry
	store := &database.MockStore{
		AddPunishmentFunc: func(ctx context.Context, p punishment.Punishment) (int64, error) {
			added = p
			return 42, nil
		},
		AddAuditEntryFunc: func(ctx context.Context, entry punishment.AuditEntry) (bool, error) {
			audited = entry
			return true, nil
		},
	}

	d := NewDispatcher(store, nil)
	d.now = fixedNow

	out, err := d.Dispatch(context.Background(), "mute "+playerID.String()+" 30m spamming chat")
	require.NoError(t, err)
	assert.Contains(t, out, "You have muted")
	assert.Contains(t, out, "(ID: 42)")

	assert.Equal(t, playerID, added.PlayerID)
	assert.Equal(t, punishment.TypeMute, added.Type)
	assert.Equal(t, "spamming chat", added.Reason)
	require.NotNil(t, added.Expiration)
	assert.Equal(t, fixedNow().Add(30*time.Minute).UnixMilli(), *added.Expiration)
	assert.Equal(t, ConsoleIssuer, added.Issuer)

	assert.Equal(t, "MUTE", audited.Action)
	assert.Equal(t, playerID.String(), audited.Target)
	assert.Equal(t, int64(42), audited.Details.PunishmentID)
	assert.Equal(t, "spamming chat", audited.Details.Reason)
	assert.Equal(t, "for 30 minutes", audited.Details.Duration)
}

func TestDispatchMutePermanentWithoutDuration(t *testing.T) {
	playerID := uuid.New()

	var added punishment.Punishment
	store := &database.MockStore{
		AddPunishmentFunc: func(ctx context.Context, p punishment.Punishment) (int64, error) {
			added = p
			return 1, nil
		},
	}

	d := NewDispatcher(store, nil)
	d.now = fixedNow

	out, err := d.Dispatch(context.Background(), "mute "+playerID.String()+" being rude")
	require.NoError(t, err)
	assert.Contains(t, out, "permanently")
	assert.Nil(t, added.Expiration)
	assert.Equal(t, "being rude", added.Reason)
}

func TestDispatchMuteAlreadyMuted(t *testing.T) {
	playerID := uuid.New()
	existing := &punishment.Punishment{ID: 7, PlayerID: playerID, Type: punishment.TypeMute}

	var addCalled bool
	store := &database.MockStore{
		GetActivePunishmentFunc: func(ctx context.Context, id uuid.UUID, typ punishment.Type) (*punishment.Punishment, error) {
			return existing, nil
		},
		AddPunishmentFunc: func(ctx context.Context, p punishment.Punishment) (int64, error) {
			addCalled = true
			return 0, nil
		},
	}

	d := NewDispatcher(store, nil)
	out, err := d.Dispatch(context.Background(), "mute "+playerID.String()+" 1h")
	require.NoError(t, err)
	assert.Contains(t, out, "already muted")
	assert.Contains(t, out, "(ID: 7)")
	assert.False(t, addCalled)
}

func TestDispatchUnmute(t *testing.T) {
	playerID := uuid.New()

	store := &database.MockStore{
		RemovePunishmentFunc: func(ctx context.Context, id uuid.UUID, typ punishment.Type) (bool, error) {
			assert.Equal(t, playerID, id)
			assert.Equal(t, punishment.TypeMute, typ)
			return true, nil
		},
	}

	d := NewDispatcher(store, nil)
	out, err := d.Dispatch(context.Background(), "unmute "+playerID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "unmuted")
}

func TestDispatchUnmuteNotMuted(t *testing.T) {
	store := &database.MockStore{}
	d := NewDispatcher(store, nil)

	out, err := d.Dispatch(context.Background(), "unmute "+uuid.NewString())
	require.NoError(t, err)
	assert.Contains(t, out, "not muted")
}

func TestDispatchRollback(t *testing.T) {
	var gotModerator string
	var gotSince int64
	var gotType *punishment.Type
	store := &database.MockStore{
		RollbackPunishmentsFunc: func(ctx context.Context, moderator string, since int64, typ *punishment.Type) ([]punishment.Punishment, error) {
			gotModerator = moderator
			gotSince = since
			gotType = typ
			return []punishment.Punishment{
				{ID: 1, PlayerID: uuid.New(), Type: punishment.TypeMute, Issuer: moderator, IssuedAt: fixedNow().UnixMilli()},
				{ID: 2, PlayerID: uuid.New(), Type: punishment.TypeBan, Issuer: moderator, IssuedAt: fixedNow().UnixMilli()},
			}, nil
		},
	}

	d := NewDispatcher(store, nil)
	d.now = fixedNow

	out, err := d.Dispatch(context.Background(), "rollback alice 1h ALL")
	require.NoError(t, err)
	assert.Contains(t, out, "Rolled back 2 punishments")
	assert.Equal(t, "alice", gotModerator)
	assert.Equal(t, fixedNow().Add(-time.Hour).UnixMilli(), gotSince)
	assert.Nil(t, gotType)
}

func TestDispatchRollbackTypeFilter(t *testing.T) {
	var gotType *punishment.Type
	store := &database.MockStore{
		RollbackPunishmentsFunc: func(ctx context.Context, moderator string, since int64, typ *punishment.Type) ([]punishment.Punishment, error) {
			gotType = typ
			return nil, nil
		},
	}

	d := NewDispatcher(store, nil)
	out, err := d.Dispatch(context.Background(), "rollback alice 30m MUTE")
	require.NoError(t, err)
	assert.Equal(t, "No punishments found to rollback.", out)
	require.NotNil(t, gotType)
	assert.Equal(t, punishment.TypeMute, *gotType)
}

func TestDispatchErrors(t *testing.T) {
	d := NewDispatcher(&database.MockStore{}, nil)

	tests := []struct {
		name    string
		command string
	}{
		{"empty", "   "},
		{"unknown command", "banhammer steve"},
		{"mute without player", "mute"},
		{"mute bad uuid", "mute not-a-uuid 5m"},
		{"unmute bad uuid", "unmute steve"},
		{"rollback missing period", "rollback alice"},
		{"rollback permanent period", "rollback alice permanent"},
		{"rollback bad type", "rollback alice 1h JAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Dispatch(context.Background(), tt.command)
			assert.Error(t, err)
		})
	}
}
