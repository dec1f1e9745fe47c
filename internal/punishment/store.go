package punishment

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract every caller (command dispatcher, HTTP
// API, expiry sweep) depends on. Implementations must be safe for concurrent
// use; every method is independently atomic, and no cross-call locking is
// provided. In particular, duplicate-prevention is the caller's job: check
// GetActivePunishment, then AddPunishment. Two near-simultaneous callers can
// both pass the check and both insert; that race is accepted and documented
// rather than hidden behind a lock.
type Store interface {
	// Init idempotently creates the backend's tables or collections and
	// indexes. An unreachable or misconfigured backend is a fatal startup
	// error.
	Init(ctx context.Context) error

	// AddPunishment inserts a new record and returns its generated id. It
	// never inspects existing punishments.
	AddPunishment(ctx context.Context, p Punishment) (int64, error)

	// RemovePunishment deletes the player's currently-active punishments of
	// the given type, reporting whether anything was removed. No active
	// punishment is not an error.
	RemovePunishment(ctx context.Context, playerID uuid.UUID, t Type) (bool, error)

	// GetActivePunishment returns the player's active punishment of the
	// given type, or nil if there is none.
	GetActivePunishment(ctx context.Context, playerID uuid.UUID, t Type) (*Punishment, error)

	// GetPunishment returns a punishment by id regardless of lifecycle
	// state, or nil if it does not exist.
	GetPunishment(ctx context.Context, id int64) (*Punishment, error)

	// CleanExpiredPunishments deletes every punishment whose set expiration
	// has passed and returns the number deleted. Permanent punishments are
	// never touched. Safe to call arbitrarily often.
	CleanExpiredPunishments(ctx context.Context) (int64, error)

	// RollbackPunishments returns every punishment issued by moderator at or
	// after since (epoch ms), optionally filtered by type, and deletes
	// exactly that set.
	RollbackPunishments(ctx context.Context, moderator string, since int64, t *Type) ([]Punishment, error)

	// Evidence attachments.
	AddEvidence(ctx context.Context, punishmentID int64, content string) (bool, error)
	RemoveEvidence(ctx context.Context, punishmentID, evidenceID int64) (bool, error)
	GetEvidenceForPunishment(ctx context.Context, punishmentID int64) ([]Evidence, error)

	// Audit ledger. Reads are ordered by timestamp descending.
	AddAuditEntry(ctx context.Context, entry AuditEntry) (bool, error)
	GetAuditLog(ctx context.Context, limit, offset int) ([]AuditEntry, error)
	GetAuditLogForPlayer(ctx context.Context, target string, limit, offset int) ([]AuditEntry, error)
	GetAuditEntry(ctx context.Context, id int64) (*AuditEntry, error)

	// GetRecentPunishmentIDs returns up to limit ids ordered by issue time
	// descending. GetActivePunishmentIDs returns the ids of every punishment
	// currently in force.
	GetRecentPunishmentIDs(ctx context.Context, limit int) ([]int64, error)
	GetActivePunishmentIDs(ctx context.Context) ([]int64, error)

	// Close releases held connections. Idempotent.
	Close() error
}
