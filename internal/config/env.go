package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	KVBackendMemory   = "memory"
	KVBackendRedis    = "redis"
	KVBackendPostgres = "postgres"
)

// Env is the process configuration read from XIUXIAN_* variables.
type Env struct {
	HTTPAddr      string `env:"XIUXIAN_HTTP_ADDR"      envDefault:":8080"`
	DatabaseDSN   string `env:"XIUXIAN_DB_DSN"`
	MigrationsDir string `env:"XIUXIAN_MIGRATIONS_DIR" envDefault:"db/migrations"`
	BalanceFile   string `env:"XIUXIAN_BALANCE_FILE"`
	LogLevel      string `env:"XIUXIAN_LOG_LEVEL"      envDefault:"info"`
	CORSOrigin    string `env:"XIUXIAN_CORS_ORIGIN"`

	DBMaxOpenConns    int           `env:"XIUXIAN_DB_MAX_OPEN_CONNS"     envDefault:"10"`
	DBMaxIdleConns    int           `env:"XIUXIAN_DB_MAX_IDLE_CONNS"     envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"XIUXIAN_DB_CONN_MAX_LIFETIME"  envDefault:"30m"`

	KVBackend string `env:"XIUXIAN_KV_BACKEND" envDefault:"memory"`
	RedisURL  string `env:"XIUXIAN_REDIS_URL"`

	NarrativeEndpoint string        `env:"XIUXIAN_NARRATIVE_ENDPOINT"`
	NarrativeAPIKey   string        `env:"XIUXIAN_NARRATIVE_API_KEY"`
	NarrativeModel    string        `env:"XIUXIAN_NARRATIVE_MODEL"`
	NarrativeTimeout  time.Duration `env:"XIUXIAN_NARRATIVE_TIMEOUT" envDefault:"3s"`

	OTelEnabled  bool   `env:"XIUXIAN_OTEL_ENABLED"`
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// ParseEnv loads Env from the environment and checks cross-field rules.
func ParseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.KVBackend = strings.ToLower(strings.TrimSpace(cfg.KVBackend))
	cfg.DatabaseDSN = strings.TrimSpace(cfg.DatabaseDSN)
	if err := cfg.validate(); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (e Env) validate() error {
	switch e.KVBackend {
	case KVBackendMemory:
	case KVBackendRedis:
		if strings.TrimSpace(e.RedisURL) == "" {
			return fmt.Errorf("XIUXIAN_REDIS_URL is required for the redis kv backend")
		}
	case KVBackendPostgres:
		if e.DatabaseDSN == "" {
			return fmt.Errorf("XIUXIAN_DB_DSN is required for the postgres kv backend")
		}
	default:
		return fmt.Errorf("unsupported kv backend: %q", e.KVBackend)
	}
	if e.NarrativeTimeout <= 0 {
		return fmt.Errorf("narrative timeout must be positive")
	}
	return nil
}

// UsesDatabase reports whether repositories should be backed by Postgres.
func (e Env) UsesDatabase() bool {
	return e.DatabaseDSN != ""
}
