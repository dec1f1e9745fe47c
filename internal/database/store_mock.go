package database

import (
	"context"

	"github.com/google/uuid"

	"tangled.org/briar.gg/briar/internal/punishment"
)

// MockStore is a mock implementation of punishment.Store for testing.
// Uses function fields to allow tests to inject custom behavior.
type MockStore struct {
	InitFunc func(ctx context.Context) error

	// Punishment operations
	AddPunishmentFunc           func(ctx context.Context, p punishment.Punishment) (int64, error)
	RemovePunishmentFunc        func(ctx context.Context, playerID uuid.UUID, t punishment.Type) (bool, error)
	GetActivePunishmentFunc     func(ctx context.Context, playerID uuid.UUID, t punishment.Type) (*punishment.Punishment, error)
	GetPunishmentFunc           func(ctx context.Context, id int64) (*punishment.Punishment, error)
	CleanExpiredPunishmentsFunc func(ctx context.Context) (int64, error)
	RollbackPunishmentsFunc     func(ctx context.Context, moderator string, since int64, t *punishment.Type) ([]punishment.Punishment, error)

	// Evidence operations
	AddEvidenceFunc              func(ctx context.Context, punishmentID int64, content string) (bool, error)
	RemoveEvidenceFunc           func(ctx context.Context, punishmentID, evidenceID int64) (bool, error)
	GetEvidenceForPunishmentFunc func(ctx context.Context, punishmentID int64) ([]punishment.Evidence, error)

	// Audit operations
	AddAuditEntryFunc        func(ctx context.Context, entry punishment.AuditEntry) (bool, error)
	GetAuditLogFunc          func(ctx context.Context, limit, offset int) ([]punishment.AuditEntry, error)
	GetAuditLogForPlayerFunc func(ctx context.Context, target string, limit, offset int) ([]punishment.AuditEntry, error)
	GetAuditEntryFunc        func(ctx context.Context, id int64) (*punishment.AuditEntry, error)

	// ID listings
	GetRecentPunishmentIDsFunc func(ctx context.Context, limit int) ([]int64, error)
	GetActivePunishmentIDsFunc func(ctx context.Context) ([]int64, error)

	CloseFunc func() error
}

var _ punishment.Store = (*MockStore)(nil)

// Init calls the mock function or returns nil if not set
func (m *MockStore) Init(ctx context.Context) error {
	if m.InitFunc != nil {
		return m.InitFunc(ctx)
	}
	return nil
}

// AddPunishment calls the mock function or returns zero if not set
func (m *MockStore) AddPunishment(ctx context.Context, p punishment.Punishment) (int64, error) {
	if m.AddPunishmentFunc != nil {
		return m.AddPunishmentFunc(ctx, p)
	}
	return 0, nil
}

// RemovePunishment calls the mock function or returns false if not set
func (m *MockStore) RemovePunishment(ctx context.Context, playerID uuid.UUID, t punishment.Type) (bool, error) {
	if m.RemovePunishmentFunc != nil {
		return m.RemovePunishmentFunc(ctx, playerID, t)
	}
	return false, nil
}

// GetActivePunishment calls the mock function or returns nil if not set
func (m *MockStore) GetActivePunishment(ctx context.Context, playerID uuid.UUID, t punishment.Type) (*punishment.Punishment, error) {
	if m.GetActivePunishmentFunc != nil {
		return m.GetActivePunishmentFunc(ctx, playerID, t)
	}
	return nil, nil
}

// GetPunishment calls the mock function or returns nil if not set
func (m *MockStore) GetPunishment(ctx context.Context, id int64) (*punishment.Punishment, error) {
	if m.GetPunishmentFunc != nil {
		return m.GetPunishmentFunc(ctx, id)
	}
	return nil, nil
}

// CleanExpiredPunishments calls the mock function or returns zero if not set
func (m *MockStore) CleanExpiredPunishments(ctx context.Context) (int64, error) {
	if m.CleanExpiredPunishmentsFunc != nil {
		return m.CleanExpiredPunishmentsFunc(ctx)
	}
	return 0, nil
}

// RollbackPunishments calls the mock function or returns nil if not set
func (m *MockStore) RollbackPunishments(ctx context.Context, moderator string, since int64, t *punishment.Type) ([]punishment.Punishment, error) {
	if m.RollbackPunishmentsFunc != nil {
		return m.RollbackPunishmentsFunc(ctx, moderator, since, t)
	}
	return nil, nil
}

// AddEvidence calls the mock function or returns false if not set
func (m *MockStore) AddEvidence(ctx context.Context, punishmentID int64, content string) (bool, error) {
	if m.AddEvidenceFunc != nil {
		return m.AddEvidenceFunc(ctx, punishmentID, content)
	}
	return false, nil
}

// RemoveEvidence calls the mock function or returns false if not set
func (m *MockStore) RemoveEvidence(ctx context.Context, punishmentID, evidenceID int64) (bool, error) {
	if m.RemoveEvidenceFunc != nil {
		return m.RemoveEvidenceFunc(ctx, punishmentID, evidenceID)
	}
	return false, nil
}

// GetEvidenceForPunishment calls the mock function or returns nil if not set
func (m *MockStore) GetEvidenceForPunishment(ctx context.Context, punishmentID int64) ([]punishment.Evidence, error) {
	if m.GetEvidenceForPunishmentFunc != nil {
		return m.GetEvidenceForPunishmentFunc(ctx, punishmentID)
	}
	return nil, nil
}

// AddAuditEntry calls the mock function or returns false if not set
func (m *MockStore) AddAuditEntry(ctx context.Context, entry punishment.AuditEntry) (bool, error) {
	if m.AddAuditEntryFunc != nil {
		return m.AddAuditEntryFunc(ctx, entry)
	}
	return false, nil
}

// GetAuditLog calls the mock function or returns nil if not set
func (m *MockStore) GetAuditLog(ctx context.Context, limit, offset int) ([]punishment.AuditEntry, error) {
	if m.GetAuditLogFunc != nil {
		return m.GetAuditLogFunc(ctx, limit, offset)
	}
	return nil, nil
}

// GetAuditLogForPlayer calls the mock function or returns nil if not set
func (m *MockStore) GetAuditLogForPlayer(ctx context.Context, target string, limit, offset int) ([]punishment.AuditEntry, error) {
	if m.GetAuditLogForPlayerFunc != nil {
		return m.GetAuditLogForPlayerFunc(ctx, target, limit, offset)
	}
	return nil, nil
}

// GetAuditEntry calls the mock function or returns nil if not set
func (m *MockStore) GetAuditEntry(ctx context.Context, id int64) (*punishment.AuditEntry, error) {
	if m.GetAuditEntryFunc != nil {
		return m.GetAuditEntryFunc(ctx, id)
	}
	return nil, nil
}

// GetRecentPunishmentIDs calls the mock function or returns nil if not set
func (m *MockStore) GetRecentPunishmentIDs(ctx context.Context, limit int) ([]int64, error) {
	if m.GetRecentPunishmentIDsFunc != nil {
		return m.GetRecentPunishmentIDsFunc(ctx, limit)
	}
	return nil, nil
}

// GetActivePunishmentIDs calls the mock function or returns nil if not set
func (m *MockStore) GetActivePunishmentIDs(ctx context.Context) ([]int64, error) {
	if m.GetActivePunishmentIDsFunc != nil {
		return m.GetActivePunishmentIDsFunc(ctx)
	}
	return nil, nil
}

// Close calls the mock function or returns nil if not set
func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
