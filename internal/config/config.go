// Package config loads server configuration from the environment, with an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// minSecretLength is the shortest accepted SESSION_SECRET
const minSecretLength = 16

var storageTypes = []string{"memory", "redis", "postgres", "sqlite"}

// Config holds application configuration loaded from environment
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig

	// CORSAllowedOrigins lists origins allowed to make credentialed calls
	CORSAllowedOrigins []string
	LogLevel           slog.Level
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host   string
	Port   int
	AppEnv string
}

// Production reports whether the server runs in production mode
func (c ServerConfig) Production() bool {
	return c.AppEnv == EnvProduction
}

// StorageConfig selects and locates the storage backends
type StorageConfig struct {
	Type        string
	SessionType string
	RedisURL    string
	DatabaseURL string
	SQLitePath  string
}

// AuthConfig holds the admin identity and session settings
type AuthConfig struct {
	AdminUsername     string
	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration
}

// Load reads configuration from the process environment, after loading a
// .env file from the working directory if one exists. Variables already set
// in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds and validates a Config from a variable lookup.
// All problems are reported together.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := reader{getenv: getenv}

	cfg := &Config{
		Server: ServerConfig{
			Host:   env.str("HOST", ""),
			Port:   env.int("PORT", 3000),
			AppEnv: env.str("APP_ENV", EnvDevelopment),
		},
		Storage: StorageConfig{
			Type:        env.str("STORAGE_TYPE", "memory"),
			RedisURL:    env.str("REDIS_URL", ""),
			DatabaseURL: env.str("DATABASE_URL", ""),
			SQLitePath:  env.str("SQLITE_PATH", "eventsphere.db"),
		},
		Auth: AuthConfig{
			AdminUsername:     env.str("ADMIN_USERNAME", "admin"),
			AdminPasswordHash: env.str("ADMIN_PASSWORD", ""),
			SessionSecret:     env.str("SESSION_SECRET", ""),
			SessionTTL:        env.duration("SESSION_TTL", 24*time.Hour),
		},
		CORSAllowedOrigins: env.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		LogLevel:           env.level("LOG_LEVEL", slog.LevelInfo),
	}
	cfg.Storage.SessionType = env.str("SESSION_STORAGE_TYPE", cfg.Storage.Type)

	errs := env.errs
	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.AppEnv != EnvDevelopment && c.Server.AppEnv != EnvProduction {
		errs = append(errs, fmt.Errorf("APP_ENV must be %s or %s", EnvDevelopment, EnvProduction))
	}

	for name, kind := range map[string]string{"STORAGE_TYPE": c.Storage.Type, "SESSION_STORAGE_TYPE": c.Storage.SessionType} {
		if !slices.Contains(storageTypes, kind) {
			errs = append(errs, fmt.Errorf("%s must be one of %s", name, strings.Join(storageTypes, ", ")))
		}
	}
	if c.uses("redis") && c.Storage.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required for redis storage"))
	}
	if c.uses("postgres") && c.Storage.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
	}

	if c.Auth.AdminUsername == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME must not be empty"))
	}
	if c.Auth.AdminPasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD is required (a bcrypt hash; see `eventsphere hash-password`)"))
	} else if _, err := bcrypt.Cost([]byte(c.Auth.AdminPasswordHash)); err != nil {
		errs = append(errs, fmt.Errorf("ADMIN_PASSWORD must be a bcrypt hash: %w", err))
	}
	if len(c.Auth.SessionSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d characters", minSecretLength))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Server.Production() && slices.Contains(c.CORSAllowedOrigins, "*") {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must list explicit origins in production"))
	}

	return errs
}

// uses reports whether either store is of the given type
func (c *Config) uses(kind string) bool {
	return c.Storage.Type == kind || c.Storage.SessionType == kind
}

// reader parses typed values and collects parse errors
type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, fallback string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (r *reader) int(key string, fallback int) int {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer: %q", key, v))
		return fallback
	}
	return n
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a duration like 24h: %q", key, v))
		return fallback
	}
	return d
}

func (r *reader) list(key string, fallback []string) []string {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (r *reader) level(key string, fallback slog.Level) slog.Level {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be debug, info, warn or error: %q", key, v))
		return fallback
	}
	return level
}
