package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "herms/docs"
	"herms/internal/auth"
	"herms/internal/config"
	"herms/internal/database"
	"herms/internal/logger"
	"herms/internal/repository"
	"herms/internal/server"
	"herms/internal/storage"
	"herms/internal/telemetry"
)

// @title           HERMS API
// @version         1.0
// @description     Project, task and document management for small teams.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name herms_session

// @schemes http

type storeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
	Clock     *storage.Clock
}

// newStorage picks the backend from the configured driver. Relational
// backends are closed when the app stops.
func newStorage(p storeParams) (storage.Storage, error) {
	driver := p.Config.Driver()
	if driver == config.DriverMemory {
		p.Logger.Warn("using in-memory storage, data is lost on restart")
		return storage.NewMemStore(p.Clock), nil
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case config.DriverSQLite:
		db, err = database.OpenSQLite(p.Config.SQLitePath, p.Clock, p.Logger)
	case config.DriverPostgres:
		db, err = database.OpenPostgres(p.Config.PostgresDSN(), p.Clock, p.Logger)
	default:
		err = fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return database.Close(db)
		},
	})
	p.Logger.Info("connected to database", zap.String("driver", driver))
	return repository.NewRepository(db, p.Clock), nil
}

type sessionParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
}

// newSessionStore keeps sessions in Redis when REDIS_URL is set and in
// process memory otherwise.
func newSessionStore(p sessionParams) (auth.Store, error) {
	if p.Config.RedisURL == "" {
		return auth.NewMemoryStore(), nil
	}

	options, err := redis.ParseURL(p.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(options)

	// Test the connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		p.Logger.Error("failed to connect to Redis", zap.Error(err))
		_ = client.Close()
		return nil, err
	}
	p.Logger.Info("connected to Redis")

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return auth.NewRedisStore(client), nil
}

func newSessions(cfg *config.Config, store auth.Store) *auth.Manager {
	return auth.NewManager(auth.NewSigner(cfg.SessionSecret, cfg.SessionTTL), store, cfg.SessionTTL)
}

func main() {
	app := fx.New(
		fx.Provide(
			config.Load,
			logger.NewLogger,
			telemetry.NewTracer,
			storage.NewClock,
			newStorage,
			newSessionStore,
			newSessions,
			server.New,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(
			server.Run,
		),
	)
	app.Run()
}
