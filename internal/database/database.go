// Package database selects and opens the configured storage backend behind
// the punishment.Store contract.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"tangled.org/briar.gg/briar/internal/config"
	"tangled.org/briar.gg/briar/internal/database/mongostore"
	"tangled.org/briar.gg/briar/internal/database/sqlstore"
	"tangled.org/briar.gg/briar/internal/punishment"
)

// Open connects the backend named by cfg and runs its idempotent
// initialization. Any failure here is fatal to startup: an unreachable or
// misconfigured backend must abort enablement, not limp along.
func Open(ctx context.Context, cfg *config.Config) (punishment.Store, error) {
	var (
		store punishment.Store
		err   error
	)

	switch cfg.Backend {
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		store, err = sqlstore.OpenSQLite(cfg.SQLitePath)
	case config.BackendMySQL:
		store, err = sqlstore.OpenMySQL(cfg.MySQLDSN)
	case config.BackendMongo:
		store, err = mongostore.Open(ctx, cfg.MongoURI)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("initialize %s backend: %w", cfg.Backend, err)
	}

	log.Info().Str("backend", string(cfg.Backend)).Msg("database: store opened")
	return store, nil
}
