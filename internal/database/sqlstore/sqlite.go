package sqlstore

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// sqliteExpirationSentinel marks a permanent punishment in the embedded
// variant, which predates NULL expirations. It never crosses the contract
// boundary.
const sqliteExpirationSentinel = -1

// OpenSQLite opens the embedded file-backed store. The pool is bounded and
// WAL mode keeps concurrent readers off the writer's back.
func OpenSQLite(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	db.SetMaxOpenConns(10)
	return newStore(db, sqliteDialect{}), nil
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS punishments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id TEXT NOT NULL,
			type TEXT NOT NULL,
			reason TEXT,
			expiration BIGINT,
			issuer TEXT NOT NULL,
			issued_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			moderator TEXT NOT NULL,
			target TEXT NOT NULL,
			details TEXT,
			timestamp BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			punishment_id INTEGER NOT NULL,
			evidence TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_punishments_player_type ON punishments (player_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_punishments_expiration ON punishments (expiration)`,
		`CREATE INDEX IF NOT EXISTS idx_punishments_issued_at ON punishments (issued_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_target ON audit_log (target)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_punishment ON evidence (punishment_id)`,
	}
}

func (sqliteDialect) encodeExpiration(exp *int64) any {
	if exp == nil {
		return int64(sqliteExpirationSentinel)
	}
	return *exp
}

func (sqliteDialect) decodeExpiration(v sql.NullInt64) *int64 {
	if !v.Valid || v.Int64 == sqliteExpirationSentinel {
		return nil
	}
	exp := v.Int64
	return &exp
}

func (sqliteDialect) activeClause() string {
	return `(expiration = -1 OR expiration > ?)`
}

func (sqliteDialect) expiredClause() string {
	return `expiration >= 0 AND expiration <= ?`
}
