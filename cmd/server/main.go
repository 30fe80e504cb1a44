// @title                       Tracker API
// @version                     1.0
// @description                 Personal project and task tracker with owner-scoped data.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/taskboard/tracker/docs"
	"github.com/taskboard/tracker/internal/api"
	"github.com/taskboard/tracker/internal/api/handler"
	"github.com/taskboard/tracker/internal/core/ports"
	"github.com/taskboard/tracker/internal/core/service"
	"github.com/taskboard/tracker/internal/infrastructure/db/mongo"
	"github.com/taskboard/tracker/internal/infrastructure/db/postgres"
	"github.com/taskboard/tracker/internal/infrastructure/db/redis"
	"github.com/taskboard/tracker/internal/pkg/config"
	"github.com/taskboard/tracker/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet; emit a bare JSON line.
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "tracker-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// repositories is the storage backend chosen by STORE_DRIVER.
type repositories struct {
	users    ports.UserRepository
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	ping     handler.Pinger
	close    func(context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repositories, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &repositories{
			users:    mongo.NewUserRepository(db),
			projects: mongo.NewProjectRepository(db),
			tasks:    mongo.NewTaskRepository(db),
			ping:     handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) }),
			close:    client.Disconnect,
		}, nil

	default:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to postgres, migrations applied")
		return &repositories{
			users:    postgres.NewUserRepository(db),
			projects: postgres.NewProjectRepository(db),
			tasks:    postgres.NewTaskRepository(db),
			ping:     handler.PingFunc(db.PingContext),
			close:    func(context.Context) error { return db.Close() },
		}, nil
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := openStore(ctx, cfg, logger.Component("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()

	readiness := map[string]handler.Pinger{cfg.Store.Driver: store.ping}

	// A nil interface disables Idempotency-Key replay.
	var idem ports.IdempotencyStore
	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func(c *goredis.Client) { _ = c.Close() }(rdb)
		idem = redis.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		readiness["redis"] = redis.Pinger{Client: rdb}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency replay enabled")
	}

	hasher, err := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Log:         log,
		APIPrefix:   cfg.APIPrefix,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        service.NewAuthService(store.users, hasher, logger.Component("auth")),
		Issuer:      tokens,
		Verifier:    tokens,
		Projects:    service.NewProjectService(store.projects, store.tasks, idem, logger.Component("projects")),
		Tasks:       service.NewTaskService(store.tasks, store.projects, idem, logger.Component("tasks")),
		Readiness:   readiness,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
