// Package config reads process configuration from ROSTER_* environment variables.
package config

import (
	"encoding/hex"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"roster/internal/adapters/storage"
	"roster/internal/domain/shared"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the resolved process configuration.
type Config struct {
	Env           string
	Addr          string
	DBDialect     storage.Dialect
	DBDSN         string
	Location      *time.Location // civil timezone used to resolve "today"
	RedisAddr     string
	RedisPassword string
	ResendAPIKey  string
	EmailFrom     string
	CSRFKey       []byte // nil outside production means generate one per process
	LogLevel      slog.Level
	ProfilesFile  string
	SlowQuery     time.Duration
}

// Production reports whether the process runs in production.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// Load reads the configuration from the process environment.
// POST: Returns an ErrConfiguration error for malformed values
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Env:           env("ROSTER_ENV", EnvDevelopment),
		Addr:          env("ROSTER_ADDR", ":8080"),
		DBDSN:         env("ROSTER_DB_DSN", "roster.db"),
		RedisAddr:     env("ROSTER_REDIS_ADDR", ""),
		RedisPassword: getenv("ROSTER_REDIS_PASSWORD"),
		ResendAPIKey:  env("ROSTER_RESEND_API_KEY", ""),
		EmailFrom:     env("ROSTER_EMAIL_FROM", "Asistencia <asistencia@example.org>"),
		ProfilesFile:  env("ROSTER_PROFILES_FILE", ""),
	}

	d, err := storage.ParseDialect(env("ROSTER_DB_DRIVER", "sqlite"))
	if err != nil {
		return Config{}, &shared.DomainError{Domain: "config", Op: "Load", Kind: shared.ErrConfiguration, Message: "ROSTER_DB_DRIVER", Err: err}
	}
	cfg.DBDialect = d

	tz := env("ROSTER_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, &shared.DomainError{Domain: "config", Op: "Load", Kind: shared.ErrConfiguration, Message: "ROSTER_TIMEZONE " + tz, Err: err}
	}
	cfg.Location = loc

	if err := cfg.LogLevel.UnmarshalText([]byte(env("ROSTER_LOG_LEVEL", "info"))); err != nil {
		return Config{}, &shared.DomainError{Domain: "config", Op: "Load", Kind: shared.ErrConfiguration, Message: "ROSTER_LOG_LEVEL", Err: err}
	}

	cfg.SlowQuery = storage.DefaultSlowQuery
	if v := env("ROSTER_SLOW_QUERY_MS", ""); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return Config{}, shared.Misconfigured("config", "Load", "ROSTER_SLOW_QUERY_MS must be a non-negative integer, got %q", v)
		}
		cfg.SlowQuery = time.Duration(ms) * time.Millisecond
	}

	// CSRF key: 32-byte hex-encoded secret. Development falls back to a per-process key.
	if keyHex := env("ROSTER_CSRF_KEY", ""); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return Config{}, shared.Misconfigured("config", "Load", "ROSTER_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		cfg.CSRFKey = key
	} else if cfg.Production() {
		return Config{}, shared.Misconfigured("config", "Load", "ROSTER_CSRF_KEY is required in production")
	}
	return cfg, nil
}
