package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangled.org/briar.gg/briar/internal/punishment"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func mute(playerID uuid.UUID, issuer string, issuedAt time.Time, expiration *int64) punishment.Punishment {
	return punishment.Punishment{
		PlayerID:   playerID,
		Type:       punishment.TypeMute,
		Reason:     "test mute",
		Expiration: expiration,
		Issuer:     issuer,
		IssuedAt:   issuedAt.UnixMilli(),
	}
}

func msPtr(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}

func TestInitIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Init(context.Background()))
	require.NoError(t, store.Init(context.Background()))
}

func TestAddAndGetActivePunishment(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	now := time.Now()
	player := uuid.New()

	id, err := store.AddPunishment(ctx, mute(player, "alice", now, msPtr(now.Add(time.Hour))))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err := store.GetActivePunishment(ctx, player, punishment.TypeMute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, player, got.PlayerID)
	assert.Equal(t, punishment.TypeMute, got.Type)
	assert.Equal(t, "test mute", got.Reason)
	require.NotNil(t, got.Expiration)

	// Different type is a miss.
	ban, err := store.GetActivePunishment(ctx, player, punishment.TypeBan)
	require.NoError(t, err)
	assert.Nil(t, ban)

	// Different player is a miss.
	other, err := store.GetActivePunishment(ctx, uuid.New(), punishment.TypeMute)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestPermanentPunishmentNeverExpires(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	player := uuid.New()

	_, err := store.AddPunishment(ctx, mute(player, "alice", time.Now(), nil))
	require.NoError(t, err)

	// Jump the clock far forward; a permanent mute stays active and the
	// sweep must not touch it.
	store.now = func() time.Time { return time.Now().Add(365 * 24 * time.Hour) }

	deleted, err := store.CleanExpiredPunishments(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	got, err := store.GetActivePunishment(ctx, player, punishment.TypeMute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Expiration, "sentinel must not leak through the contract")
}

func TestExpiryScenario(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	start := time.Now()
	player := uuid.New()

	_, err := store.AddPunishment(ctx, mute(player, "alice", start, msPtr(start.Add(5*time.Minute))))
	require.NoError(t, err)

	got, err := store.GetActivePunishment(ctx, player, punishment.TypeMute)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Six minutes later the mute is expired: invisible to the active
	// lookup, and the sweep reports exactly one deletion.
	store.now = func() time.Time { return start.Add(6 * time.Minute) }

	got, err = store.GetActivePunishment(ctx, player, punishment.TypeMute)
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err := store.CleanExpiredPunishments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = store.CleanExpiredPunishments(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted, "sweep is idempotent")
}

func TestSweepExactness(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	start := time.Now()

	expired := uuid.New()
	active := uuid.New()
	permanent := uuid.New()

	_, err := store.AddPunishment(ctx, mute(expired, "alice", start, msPtr(start.Add(time.Minute))))
	require.NoError(t, err)
	_, err = store.AddPunishment(ctx, mute(active, "alice", start, msPtr(start.Add(time.Hour))))
	require.NoError(t, err)
	_, err = store.AddPunishment(ctx, mute(permanent, "alice", start, nil))
	require.NoError(t, err)

	store.now = func() time.Time { return start.Add(10 * time.Minute) }

	deleted, err := store.CleanExpiredPunishments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	for _, player := range []uuid.UUID{active, permanent} {
		got, err := store.GetActivePunishment(ctx, player, punishment.TypeMute)
		require.NoError(t, err)
		assert.NotNil(t, got)
	}
}

func TestRemovePunishment(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	now := time.Now()
	player := uuid.New()

	removed, err := store.RemovePunishment(ctx, player, punishment.TypeMute)
	require.NoError(t, err)
	assert.False(t, removed, "removing a non-existent punishment is not an error")

	_, err = store.AddPunishment(ctx, mute(player, "alice", now, msPtr(now.Add(time.Hour))))
	require.NoError(t, err)

	removed, err = store.RemovePunishment(ctx, player, punishment.TypeMute)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err := store.GetActivePunishment(ctx, player, punishment.TypeMute)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemovePunishmentLeavesExpiredRows(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	start := time.Now()
	player := uuid.New()

	_, err := store.AddPunishment(ctx, mute(player, "alice", start, msPtr(start.Add(time.Minute))))
	require.NoError(t, err)

	store.now = func() time.Time { return start.Add(5 * time.Minute) }

	// The row is expired, not active, so remove matches nothing.
	removed, err := store.RemovePunishment(ctx, player, punishment.TypeMute)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRollbackExactness(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	base := time.UnixMilli(0)

	alice1 := uuid.New()
	alice2 := uuid.New()
	bob1 := uuid.New()

	id1, err := store.AddPunishment(ctx, mute(alice1, "alice", base.Add(100*time.Millisecond), nil))
	require.NoError(t, err)
	id2, err := store.AddPunishment(ctx, mute(alice2, "alice", base.Add(200*time.Millisecond), nil))
	require.NoError(t, err)
	_, err = store.AddPunishment(ctx, mute(bob1, "bob", base.Add(150*time.Millisecond), nil))
	require.NoError(t, err)

	rolled, err := store.RollbackPunishments(ctx, "alice", 100, nil)
	require.NoError(t, err)
	require.Len(t, rolled, 2)

	ids := []int64{rolled[0].ID, rolled[1].ID}
	assert.ElementsMatch(t, []int64{id1, id2}, ids)

	for _, player := range []uuid.UUID{alice1, alice2} {
		got, err := store.GetActivePunishment(ctx, player, punishment.TypeMute)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	got, err := store.GetActivePunishment(ctx, bob1, punishment.TypeMute)
	require.NoError(t, err)
	assert.NotNil(t, got, "bob's punishment survives alice's rollback")
}

func TestRollbackTypeFilterAndWindow(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	base := time.UnixMilli(0)
	player := uuid.New()

	before, err := store.AddPunishment(ctx, mute(uuid.New(), "alice", base.Add(50*time.Millisecond), nil))
	require.NoError(t, err)

	ban := punishment.Punishment{
		PlayerID: player,
		Type:     punishment.TypeBan,
		Issuer:   "alice",
		IssuedAt: base.Add(200 * time.Millisecond).UnixMilli(),
	}
	banID, err := store.AddPunishment(ctx, ban)
	require.NoError(t, err)
	_, err = store.AddPunishment(ctx, mute(uuid.New(), "alice", base.Add(300*time.Millisecond), nil))
	require.NoError(t, err)

	banType := punishment.TypeBan
	rolled, err := store.RollbackPunishments(ctx, "alice", 100, &banType)
	require.NoError(t, err)
	require.Len(t, rolled, 1)
	assert.Equal(t, banID, rolled[0].ID)

	// The mute issued before the window is untouched.
	p, err := store.GetPunishment(ctx, before)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestEvidenceLinkage(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	now := time.Now()

	pid, err := store.AddPunishment(ctx, mute(uuid.New(), "alice", now, nil))
	require.NoError(t, err)

	ok, err := store.AddEvidence(ctx, pid, "screenshot: https://example.com/a.png")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.AddEvidence(ctx, pid, "chat log excerpt")
	require.NoError(t, err)
	assert.True(t, ok)

	items, err := store.GetEvidenceForPunishment(ctx, pid)
	require.NoError(t, err)
	require.Len(t, items, 2)
	contents := []string{items[0].Content, items[1].Content}
	assert.Contains(t, contents, "screenshot: https://example.com/a.png")
	assert.Contains(t, contents, "chat log excerpt")

	removed, err := store.RemoveEvidence(ctx, pid, items[0].ID)
	require.NoError(t, err)
	assert.True(t, removed)

	items, err = store.GetEvidenceForPunishment(ctx, pid)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Mismatched punishment id removes nothing.
	removed, err = store.RemoveEvidence(ctx, pid+1, items[0].ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAuditLogOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for i := 1; i <= 5; i++ {
		ok, err := store.AddAuditEntry(ctx, punishment.AuditEntry{
			Action:    "MUTE",
			Moderator: "alice",
			Target:    "steve",
			Details:   punishment.AuditDetails{PunishmentID: int64(i), Duration: "permanently"},
			Timestamp: int64(i * 1000),
		})
		require.NoError(t, err)
		assert.True(t, ok)
	}

	entries, err := store.GetAuditLog(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(5000), entries[0].Timestamp)
	assert.Equal(t, int64(3000), entries[2].Timestamp)

	entries, err = store.GetAuditLog(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2000), entries[0].Timestamp)

	entries, err = store.GetAuditLogForPlayer(ctx, "steve", 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	entries, err = store.GetAuditLogForPlayer(ctx, "alex", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAuditEntryDetailsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	details := punishment.AuditDetails{PunishmentID: 9, Reason: "griefing", Duration: "for 1 hours"}
	ok, err := store.AddAuditEntry(ctx, punishment.AuditEntry{
		Action:    "BAN",
		Moderator: "alice",
		Target:    "steve",
		Details:   details,
		Timestamp: time.Now().UnixMilli(),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := store.GetAuditLog(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, details, entries[0].Details)

	got, err := store.GetAuditEntry(ctx, entries[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, details, got.Details)

	missing, err := store.GetAuditEntry(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecentAndActiveIDs(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	start := time.Now()

	oldID, err := store.AddPunishment(ctx, mute(uuid.New(), "alice", start.Add(-time.Hour), msPtr(start.Add(-time.Minute))))
	require.NoError(t, err)
	newID, err := store.AddPunishment(ctx, mute(uuid.New(), "alice", start, nil))
	require.NoError(t, err)

	recent, err := store.GetRecentPunishmentIDs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, newID, recent[0])

	active, err := store.GetActivePunishmentIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{newID}, active)
	assert.NotContains(t, active, oldID)
}
