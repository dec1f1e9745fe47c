// Package config loads service configuration from the environment. A .env
// file is honored when present so local development doesn't need exported
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Backend selects which storage implementation serves the Store contract.
// The choice is made once at startup; there is no runtime switching.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMySQL  Backend = "mysql"
	BackendMongo  Backend = "mongo"
)

// Config is everything the server needs to run.
type Config struct {
	Backend    Backend
	SQLitePath string
	MySQLDSN   string
	MongoURI   string

	APIPort int
	APIKey  string

	WebhookURL string

	SweepInterval time.Duration
}

// Load reads configuration from the environment, applying defaults where a
// variable is unset. Invalid values are errors; the caller aborts startup.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("config: no .env file, using environment only")
	}

	cfg := &Config{
		Backend:       Backend(envOr("BRIAR_BACKEND", string(BackendSQLite))),
		SQLitePath:    envOr("BRIAR_SQLITE_PATH", "data/briar.db"),
		MySQLDSN:      os.Getenv("BRIAR_MYSQL_DSN"),
		MongoURI:      envOr("BRIAR_MONGO_URI", "mongodb://localhost:27017"),
		APIKey:        envOr("BRIAR_API_KEY", "default-key"),
		WebhookURL:    os.Getenv("BRIAR_WEBHOOK_URL"),
		APIPort:       8080,
		SweepInterval: time.Hour,
	}

	switch cfg.Backend {
	case BackendSQLite, BackendMySQL, BackendMongo:
	default:
		return nil, fmt.Errorf("config: unknown backend %q", cfg.Backend)
	}
	if cfg.Backend == BackendMySQL && cfg.MySQLDSN == "" {
		return nil, fmt.Errorf("config: BRIAR_MYSQL_DSN is required for the mysql backend")
	}

	if v := os.Getenv("BRIAR_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("config: invalid BRIAR_API_PORT %q", v)
		}
		cfg.APIPort = port
	}

	if v := os.Getenv("BRIAR_SWEEP_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil || interval <= 0 {
			return nil, fmt.Errorf("config: invalid BRIAR_SWEEP_INTERVAL %q", v)
		}
		cfg.SweepInterval = interval
	}

	if cfg.APIKey == "default-key" {
		log.Warn().Msg("config: BRIAR_API_KEY not set, using default key")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
