// Package bootstrap assembles the storage and locking backends selected by configuration.
package bootstrap

import (
	"context"
	"fmt"

	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/internal/config"
	"github.com/fastygo/taskpulse/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskpulse/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskpulse/internal/infrastructure/redis"
	sqliteInfra "github.com/fastygo/taskpulse/internal/infrastructure/sqlite"
	"github.com/fastygo/taskpulse/pkg/keylock"
	"github.com/fastygo/taskpulse/repository"
	pgRepo "github.com/fastygo/taskpulse/repository/postgres"
	sqliteRepo "github.com/fastygo/taskpulse/repository/sqlite"
	"github.com/fastygo/taskpulse/usecase"
)

// Storage bundles the repositories of one backend with its health probe.
type Storage struct {
	Driver     string
	Tasks      repository.TaskRepository
	Users      repository.UserRepository
	Activities repository.ActivityRepository
	Probe      monitor.Probe
	Close      func()
}

// OpenStorage connects to postgres (running migrations first) or opens the sqlite file.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqliteInfra.Open(cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Driver:     config.DriverSQLite,
			Tasks:      sqliteRepo.NewTaskRepository(db),
			Users:      sqliteRepo.NewUserRepository(db),
			Activities: sqliteRepo.NewActivityRepository(db),
			Probe:      db.PingContext,
			Close:      func() { _ = db.Close() },
		}, nil

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Storage{
			Driver:     config.DriverPostgres,
			Tasks:      pgRepo.NewTaskRepository(pool),
			Users:      pgRepo.NewUserRepository(pool),
			Activities: pgRepo.NewActivityRepository(pool),
			Probe:      pool.Ping,
			Close:      func() { pgInfra.Close(pool, logger) },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Database.Driver)
	}
}

// UserLocker returns the configured per-user lock. The redis client is nil for the local backend.
func UserLocker(cfg *config.Config, logger *zap.Logger) (usecase.UserLocker, *goRedis.Client, error) {
	if cfg.Baseline.LockBackend == config.LockBackendLocal {
		return keylock.New(), nil, nil
	}
	client, err := redisInfra.NewClient(cfg.Redis, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return redisInfra.NewUserLock(client, cfg.Baseline.LockTTL, logger), client, nil
}
