package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func lookup(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func validEnv(t *testing.T) map[string]string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	return map[string]string{
		"ADMIN_PASSWORD": string(hash),
		"SESSION_SECRET": "0123456789abcdef0123",
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(validEnv(t)))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, EnvDevelopment, cfg.Server.AppEnv)
	assert.False(t, cfg.Server.Production())
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "memory", cfg.Storage.SessionType)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestOverrides(t *testing.T) {
	env := validEnv(t)
	env["PORT"] = "8081"
	env["APP_ENV"] = "production"
	env["STORAGE_TYPE"] = "postgres"
	env["SESSION_STORAGE_TYPE"] = "redis"
	env["DATABASE_URL"] = "postgres://localhost/eventsphere"
	env["REDIS_URL"] = "redis://localhost:6379"
	env["CORS_ALLOWED_ORIGINS"] = "https://checkin.example.com, https://admin.example.com ,"
	env["SESSION_TTL"] = "8h"
	env["LOG_LEVEL"] = "debug"

	cfg, err := FromEnv(lookup(env))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.True(t, cfg.Server.Production())
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "redis", cfg.Storage.SessionType)
	assert.Equal(t, []string{"https://checkin.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 8*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestMissingRequiredValuesReportedTogether(t *testing.T) {
	_, err := FromEnv(lookup(map[string]string{}))
	require.Error(t, err)
	assert.ErrorContains(t, err, "ADMIN_PASSWORD is required")
	assert.ErrorContains(t, err, "SESSION_SECRET must be at least")
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]struct {
		key, value, want string
	}{
		"port not a number":  {"PORT", "eighty", "PORT must be an integer"},
		"port out of range":  {"PORT", "70000", "PORT must be between"},
		"storage type":       {"STORAGE_TYPE", "mongo", "STORAGE_TYPE must be one of"},
		"redis without url":  {"STORAGE_TYPE", "redis", "REDIS_URL is required"},
		"postgres sessions":  {"SESSION_STORAGE_TYPE", "postgres", "DATABASE_URL is required"},
		"plaintext password": {"ADMIN_PASSWORD", "hunter2", "ADMIN_PASSWORD must be a bcrypt hash"},
		"short secret":       {"SESSION_SECRET", "short", "SESSION_SECRET must be at least"},
		"bad ttl":            {"SESSION_TTL", "forever", "SESSION_TTL must be a duration"},
		"zero ttl":           {"SESSION_TTL", "0s", "SESSION_TTL must be positive"},
		"app env":            {"APP_ENV", "staging", "APP_ENV must be"},
		"log level":          {"LOG_LEVEL", "loud", "LOG_LEVEL must be"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := validEnv(t)
			env[tt.key] = tt.value
			_, err := FromEnv(lookup(env))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestWildcardOriginRejectedInProduction(t *testing.T) {
	env := validEnv(t)
	env["APP_ENV"] = "production"
	env["CORS_ALLOWED_ORIGINS"] = "*"

	_, err := FromEnv(lookup(env))
	assert.ErrorContains(t, err, "explicit origins")
}
