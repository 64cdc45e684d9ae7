package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/eventsphere/internal/api"
	"github.com/mcoot/eventsphere/internal/api/handler"
	"github.com/mcoot/eventsphere/internal/config"
	"github.com/mcoot/eventsphere/internal/factory"
	"github.com/mcoot/eventsphere/internal/services/auth"
	"github.com/mcoot/eventsphere/internal/storage/postgres"
	redisstorage "github.com/mcoot/eventsphere/internal/storage/redis"
)

// sessionCleanupInterval is how often expired sessions are purged
const sessionCleanupInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build factory config from the loaded configuration
	factoryCfg := factory.Config{
		Logger:             logger,
		StorageType:        cfg.Storage.Type,
		SessionStorageType: cfg.Storage.SessionType,
		SQLitePath:         cfg.Storage.SQLitePath,
		AuthConfig: auth.Config{
			AdminUsername:     cfg.Auth.AdminUsername,
			AdminPasswordHash: cfg.Auth.AdminPasswordHash,
			SessionDuration:   cfg.Auth.SessionTTL,
			CookieSecret:      []byte(cfg.Auth.SessionSecret),
		},
	}
	if cfg.Storage.RedisURL != "" {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}
	if cfg.Storage.DatabaseURL != "" {
		factoryCfg.PostgresConfig = &postgres.Config{URL: cfg.Storage.DatabaseURL}
	}

	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:              logger,
		Metrics:             app.Metrics,
		AuthService:         app.AuthService,
		RegistrationService: app.RegistrationService,
		CheckInService:      app.CheckInService,
		StatsService:        app.StatsService,
		Cookie: handler.CookieConfig{
			Name:   api.DefaultCookieName,
			Secure: cfg.Server.Production(),
		},
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	server := api.NewServer(router, serverConfig, logger)

	go cleanSessions(ctx, app.AuthService, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("env", cfg.Server.AppEnv),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// cleanSessions purges expired sessions until ctx is done
func cleanSessions(ctx context.Context, authService *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := authService.CleanExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				logger.Debug("expired sessions removed", slog.Int("count", removed))
			}
		}
	}
}
