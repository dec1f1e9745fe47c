// Package sqlstore implements the punishment store on relational backends.
// The embedded (SQLite) and networked (MySQL) variants share all query text;
// a small dialect seam covers what actually differs between them: schema DDL
// and the representation of "no expiration" (SQLite stores the sentinel -1,
// MySQL stores NULL). Both normalize to a nil *int64 at the contract
// boundary so callers never see a backend-specific sentinel.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"tangled.org/briar.gg/briar/internal/punishment"
)

// dialect covers the differences between the two relational variants.
type dialect interface {
	// name is the sqlx driver name, also used in log context.
	name() string
	// schema returns the idempotent DDL run by Init, indexes included.
	schema() []string
	// encodeExpiration maps a contract expiration to its stored value.
	encodeExpiration(exp *int64) any
	// decodeExpiration maps a stored expiration back to the contract form.
	decodeExpiration(v sql.NullInt64) *int64
	// activeClause is the WHERE fragment matching active punishments; it
	// binds a single epoch-millisecond "now" parameter.
	activeClause() string
	// expiredClause is the WHERE fragment matching punishments whose set
	// expiration has passed; it binds a single "now" parameter.
	expiredClause() string
}

// Store implements punishment.Store against a relational database.
type Store struct {
	db  *sqlx.DB
	d   dialect
	now func() time.Time
}

var _ punishment.Store = (*Store)(nil)

func newStore(db *sqlx.DB, d dialect) *Store {
	return &Store{db: db, d: d, now: time.Now}
}

// Init creates the punishments, audit_log and evidence tables and their
// indexes. All statements are IF NOT EXISTS, so Init is safe to rerun.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range s.d.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s schema: %w", s.d.name(), err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type punishmentRow struct {
	ID         int64          `db:"id"`
	PlayerID   string         `db:"player_id"`
	Type       string         `db:"type"`
	Reason     sql.NullString `db:"reason"`
	Expiration sql.NullInt64  `db:"expiration"`
	Issuer     string         `db:"issuer"`
	IssuedAt   int64          `db:"issued_at"`
}

func (s *Store) rowToPunishment(r punishmentRow) (punishment.Punishment, error) {
	playerID, err := uuid.Parse(r.PlayerID)
	if err != nil {
		return punishment.Punishment{}, fmt.Errorf("malformed player id %q: %w", r.PlayerID, err)
	}
	return punishment.Punishment{
		ID:         r.ID,
		PlayerID:   playerID,
		Type:       punishment.Type(r.Type),
		Reason:     r.Reason.String,
		Expiration: s.d.decodeExpiration(r.Expiration),
		Issuer:     r.Issuer,
		IssuedAt:   r.IssuedAt,
	}, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) AddPunishment(ctx context.Context, p punishment.Punishment) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO punishments (player_id, type, reason, expiration, issuer, issued_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.PlayerID.String(), string(p.Type), nullIfEmpty(p.Reason),
		s.d.encodeExpiration(p.Expiration), p.Issuer, p.IssuedAt)
	if err != nil {
		return 0, fmt.Errorf("add punishment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add punishment: no generated id: %w", err)
	}
	return id, nil
}

func (s *Store) RemovePunishment(ctx context.Context, playerID uuid.UUID, t punishment.Type) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM punishments
		WHERE player_id = ? AND type = ? AND `+s.d.activeClause(),
		playerID.String(), string(t), s.now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("remove punishment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove punishment: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GetActivePunishment(ctx context.Context, playerID uuid.UUID, t punishment.Type) (*punishment.Punishment, error) {
	var row punishmentRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, player_id, type, reason, expiration, issuer, issued_at
		FROM punishments
		WHERE player_id = ? AND type = ? AND `+s.d.activeClause()+`
		LIMIT 1
	`, playerID.String(), string(t), s.now().UnixMilli())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active punishment: %w", err)
	}
	p, err := s.rowToPunishment(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetPunishment(ctx context.Context, id int64) (*punishment.Punishment, error) {
	var row punishmentRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, player_id, type, reason, expiration, issuer, issued_at
		FROM punishments WHERE id = ?
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get punishment: %w", err)
	}
	p, err := s.rowToPunishment(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CleanExpiredPunishments(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM punishments WHERE `+s.d.expiredClause(), s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("clean expired punishments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clean expired punishments: %w", err)
	}
	return n, nil
}

// RollbackPunishments reads and deletes the matching set inside a single
// transaction, so the returned list is exactly what was removed.
func (s *Store) RollbackPunishments(ctx context.Context, moderator string, since int64, t *punishment.Type) ([]punishment.Punishment, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("rollback punishments: begin: %w", err)
	}
	defer tx.Rollback()

	where := `issuer = ? AND issued_at >= ?`
	args := []any{moderator, since}
	if t != nil {
		where += ` AND type = ?`
		args = append(args, string(*t))
	}

	var rows []punishmentRow
	err = tx.SelectContext(ctx, &rows, `
		SELECT id, player_id, type, reason, expiration, issuer, issued_at
		FROM punishments WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("rollback punishments: select: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM punishments WHERE `+where, args...); err != nil {
		return nil, fmt.Errorf("rollback punishments: delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("rollback punishments: commit: %w", err)
	}

	punishments := make([]punishment.Punishment, 0, len(rows))
	for _, row := range rows {
		p, err := s.rowToPunishment(row)
		if err != nil {
			log.Warn().Err(err).Int64("id", row.ID).Msg("store: skipping malformed punishment row")
			continue
		}
		punishments = append(punishments, p)
	}
	return punishments, nil
}

func (s *Store) AddEvidence(ctx context.Context, punishmentID int64, content string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO evidence (punishment_id, evidence) VALUES (?, ?)`,
		punishmentID, content)
	if err != nil {
		return false, fmt.Errorf("add evidence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add evidence: %w", err)
	}
	return n > 0, nil
}

func (s *Store) RemoveEvidence(ctx context.Context, punishmentID, evidenceID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM evidence WHERE id = ? AND punishment_id = ?`,
		evidenceID, punishmentID)
	if err != nil {
		return false, fmt.Errorf("remove evidence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove evidence: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GetEvidenceForPunishment(ctx context.Context, punishmentID int64) ([]punishment.Evidence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, punishment_id, evidence FROM evidence WHERE punishment_id = ?`,
		punishmentID)
	if err != nil {
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	defer rows.Close()

	var out []punishment.Evidence
	for rows.Next() {
		var e punishment.Evidence
		if err := rows.Scan(&e.ID, &e.PunishmentID, &e.Content); err != nil {
			return nil, fmt.Errorf("get evidence: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) AddAuditEntry(ctx context.Context, entry punishment.AuditEntry) (bool, error) {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		details = []byte("{}")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (action, moderator, target, details, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, entry.Action, entry.Moderator, entry.Target, string(details), entry.Timestamp)
	if err != nil {
		return false, fmt.Errorf("add audit entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add audit entry: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GetAuditLog(ctx context.Context, limit, offset int) ([]punishment.AuditEntry, error) {
	return s.listAuditLog(ctx, `
		SELECT id, action, moderator, target, details, timestamp
		FROM audit_log ORDER BY timestamp DESC LIMIT ? OFFSET ?
	`, limit, offset)
}

func (s *Store) GetAuditLogForPlayer(ctx context.Context, target string, limit, offset int) ([]punishment.AuditEntry, error) {
	return s.listAuditLog(ctx, `
		SELECT id, action, moderator, target, details, timestamp
		FROM audit_log WHERE target = ? ORDER BY timestamp DESC LIMIT ? OFFSET ?
	`, target, limit, offset)
}

func (s *Store) listAuditLog(ctx context.Context, query string, args ...any) ([]punishment.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get audit log: %w", err)
	}
	defer rows.Close()

	var entries []punishment.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("get audit log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) GetAuditEntry(ctx context.Context, id int64) (*punishment.AuditEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, action, moderator, target, details, timestamp
		FROM audit_log WHERE id = ?
	`, id)
	entry, err := scanAuditEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit entry: %w", err)
	}
	return &entry, nil
}

// scanAuditEntry decodes one audit_log row. The details column holds JSON;
// rows written before the structured format land in the legacy text parser.
func scanAuditEntry(scan func(...any) error) (punishment.AuditEntry, error) {
	var entry punishment.AuditEntry
	var details string
	if err := scan(&entry.ID, &entry.Action, &entry.Moderator, &entry.Target, &details, &entry.Timestamp); err != nil {
		return entry, err
	}
	if err := json.Unmarshal([]byte(details), &entry.Details); err != nil {
		entry.Details = punishment.ParseAuditDetails(details)
	}
	return entry, nil
}

func (s *Store) GetRecentPunishmentIDs(ctx context.Context, limit int) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		`SELECT id FROM punishments ORDER BY issued_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent punishment ids: %w", err)
	}
	return ids, nil
}

func (s *Store) GetActivePunishmentIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		`SELECT id FROM punishments WHERE `+s.d.activeClause(), s.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("get active punishment ids: %w", err)
	}
	return ids, nil
}
