package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/eventsphere/internal/dependencies/clock"
	"github.com/mcoot/eventsphere/internal/dependencies/random"
	"github.com/mcoot/eventsphere/internal/metrics"
	"github.com/mcoot/eventsphere/internal/services/auth"
	"github.com/mcoot/eventsphere/internal/services/checkin"
	"github.com/mcoot/eventsphere/internal/services/registration"
	"github.com/mcoot/eventsphere/internal/services/stats"
	"github.com/mcoot/eventsphere/internal/storage"
	"github.com/mcoot/eventsphere/internal/storage/memory"
	"github.com/mcoot/eventsphere/internal/storage/postgres"
	redisstorage "github.com/mcoot/eventsphere/internal/storage/redis"
	"github.com/mcoot/eventsphere/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage holds participants; Sessions may be the same backend
	Storage  storage.Storage
	Sessions storage.SessionStore

	// External dependencies
	Clock   clock.Clock
	Random  random.Random
	Metrics *metrics.Metrics

	// Services
	RegistrationService *registration.Service
	CheckInService      *checkin.Service
	StatsService        *stats.Service
	AuthService         *auth.Service

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the participant backend; defaults to "memory"
	StorageType string
	// SessionStorageType selects the session backend; defaults to StorageType
	SessionStorageType string
	// RedisConfig is required if either storage type is "redis"
	RedisConfig *redisstorage.Config
	// PostgresConfig is required if either storage type is "postgres"
	PostgresConfig *postgres.Config
	// SQLitePath is the database file for "sqlite"; defaults to eventsphere.db
	SQLitePath string
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}
	sessionType := cfg.SessionStorageType
	if sessionType == "" {
		sessionType = storageType
	}

	store, err := openStorage(ctx, storageType, cfg, logger)
	if err != nil {
		return nil, err
	}

	var sessions storage.Storage = store
	if sessionType != storageType {
		sessions, err = openStorage(ctx, sessionType, cfg, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	app, err := newWithDependencies(store, sessions, clock.New(), random.New(), metrics.New(), cfg.AuthConfig, logger)
	if err != nil {
		_ = store.Close()
		if sessions != store {
			_ = sessions.Close()
		}
		return nil, err
	}
	app.closers = []io.Closer{store}
	if sessions != store {
		app.closers = append(app.closers, sessions)
	}

	logger.Info("storage ready",
		slog.String("participants", storageType),
		slog.String("sessions", sessionType),
	)
	return app, nil
}

// openStorage creates the backend named by storageType
func openStorage(ctx context.Context, storageType string, cfg Config, logger *slog.Logger) (storage.Storage, error) {
	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when storage type is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when storage type is postgres")
		}
		return postgres.New(ctx, *cfg.PostgresConfig, logger)
	case StorageTypeSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "eventsphere.db"
		}
		return sqlite.New(path)
	default:
		return nil, fmt.Errorf("invalid storage type %q: must be memory, redis, postgres or sqlite", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.ParticipantStore,
	sessions storage.SessionStore,
	clk clock.Clock,
	rnd random.Random,
	m *metrics.Metrics,
	authCfg auth.Config,
	logger *slog.Logger,
) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	authService, err := auth.New(sessions, clk, rnd, m, logger, authCfg)
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}
	app := &App{
		Sessions:            sessions,
		Clock:               clk,
		Random:              rnd,
		Metrics:             m,
		RegistrationService: registration.New(store, clk, rnd, m, logger),
		CheckInService:      checkin.New(store, clk, m, logger),
		StatsService:        stats.New(store),
		AuthService:         authService,
	}
	if s, ok := store.(storage.Storage); ok {
		app.Storage = s
	}
	return app, nil
}

// Close releases the storage backends
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
