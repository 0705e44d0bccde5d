// Package bootstrap assembles the bridge service, its storage, and the HTTP
// router from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"stackbridge/internal/bridge"
	"stackbridge/internal/invocations"
	"stackbridge/internal/payload"
	"stackbridge/internal/services/health"
	"stackbridge/internal/shared/config"
	"stackbridge/internal/shared/server"
	"stackbridge/internal/shared/server/middleware"
	"stackbridge/internal/shared/storage/db"
	"stackbridge/internal/shared/storage/object"
	localstore "stackbridge/internal/shared/storage/object/local"
	s3store "stackbridge/internal/shared/storage/object/s3"
	"stackbridge/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Archive            object.ObjectStore
	Channel            *payload.Channel
	InvocationsRepo    invocations.Repo
	Bridge             *bridge.Service
	BridgeHandler      *bridge.Handler
	InvocationsHandler *invocations.Handler
	HealthHandler      *health.Handler
}

// Build prepares dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Archive: archive,
		Channel: BuildChannel(cfg),
	}
	if sqlDB != nil {
		app.InvocationsRepo = &invocations.PGRepo{DB: sqlDB}
	} else {
		app.InvocationsRepo = invocations.NewMemoryRepo()
	}

	app.Bridge = bridge.NewService(bridge.Options{
		Engine:          EngineConfig(cfg),
		Channel:         app.Channel,
		Recorder:        app.InvocationsRepo,
		Archive:         archive,
		StatusTTL:       cfg.StatusCacheTTL,
		TechnologiesTTL: cfg.TechnologiesCacheTTL,
	})
	app.BridgeHandler = bridge.NewHandler(app.Bridge, cfg.MaxBodyBytes)
	app.InvocationsHandler = invocations.NewHandler(app.InvocationsRepo)

	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	app.HealthHandler = health.NewHandler(health.NewService(pinger))

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             cfg,
		HealthHandler:      app.HealthHandler,
		BridgeHandler:      app.BridgeHandler,
		InvocationsHandler: app.InvocationsHandler,
		RateLimiter:        middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":             cfg.Env,
		"engine_command":  cfg.Engine.Command,
		"payload_dir":     app.Channel.Dir(),
		"invocation_repo": repoKind(sqlDB),
		"archive":         archive != nil,
	})
	return app, nil
}

// Close releases the cache loops and the database pool.
func (a *App) Close() {
	if a.Bridge != nil {
		a.Bridge.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

// EngineConfig maps configuration onto the bridge's engine settings.
func EngineConfig(cfg config.Config) bridge.EngineConfig {
	return bridge.EngineConfig{
		Command:        cfg.Engine.Command,
		Args:           cfg.Engine.Args,
		Dir:            cfg.Engine.Dir,
		Env:            cfg.Engine.Env,
		VersionArgs:    cfg.Engine.VersionArgs,
		Timeout:        cfg.Engine.Timeout,
		MaxOutputBytes: cfg.Engine.MaxOutputBytes,
	}
}

// BuildChannel returns the payload channel described by cfg.
func BuildChannel(cfg config.Config) *payload.Channel {
	return payload.New(cfg.Payload.Dir, cfg.Payload.Prefix)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_invocations", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		telemetry.Warn("bootstrap.memory_invocations", map[string]any{"reason": "DATABASE_URL empty", "env": cfg.Env})
		return nil, nil
	}

	defaults := db.DefaultServerOptions()
	if db.IsLambdaRuntime() {
		defaults = db.DefaultLambdaOptions()
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_invocations", map[string]any{"reason": "database unavailable", "error": err.Error()})
			return nil, nil
		}
		return nil, fmt.Errorf("database: %w", err)
	}
	return sqlDB, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if !cfg.ArchiveEngineFailures {
		return nil, nil
	}
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, fmt.Errorf("archive store: %w", err)
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func repoKind(sqlDB *sql.DB) string {
	if sqlDB != nil {
		return "postgres"
	}
	return "memory"
}
