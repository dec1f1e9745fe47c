package sqlstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// OpenMySQL opens the networked relational store. The DSN is a
// go-sql-driver DSN, e.g. "user:pass@tcp(db:3306)/briar?parseTime=true".
func OpenMySQL(dsn string) (*Store, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return newStore(db, mysqlDialect{}), nil
}

type mysqlDialect struct{}

func (mysqlDialect) name() string { return "mysql" }

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes live inside the table
// definitions to keep Init idempotent.
func (mysqlDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS punishments (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			player_id VARCHAR(36) NOT NULL,
			type VARCHAR(16) NOT NULL,
			reason TEXT,
			expiration BIGINT,
			issuer VARCHAR(128) NOT NULL,
			issued_at BIGINT NOT NULL,
			INDEX idx_punishments_player_type (player_id, type),
			INDEX idx_punishments_expiration (expiration),
			INDEX idx_punishments_issued_at (issued_at)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			action VARCHAR(32) NOT NULL,
			moderator VARCHAR(128) NOT NULL,
			target VARCHAR(128) NOT NULL,
			details TEXT,
			timestamp BIGINT NOT NULL,
			INDEX idx_audit_log_timestamp (timestamp),
			INDEX idx_audit_log_target (target)
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			punishment_id BIGINT NOT NULL,
			evidence TEXT NOT NULL,
			INDEX idx_evidence_punishment (punishment_id)
		)`,
	}
}

func (mysqlDialect) encodeExpiration(exp *int64) any {
	if exp == nil {
		return nil
	}
	return *exp
}

func (mysqlDialect) decodeExpiration(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	exp := v.Int64
	return &exp
}

func (mysqlDialect) activeClause() string {
	return `(expiration IS NULL OR expiration > ?)`
}

func (mysqlDialect) expiredClause() string {
	return `expiration IS NOT NULL AND expiration <= ?`
}
