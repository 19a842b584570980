package app

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/pg"
	"github.com/telewall/miniapp-backend/internal/pkg/logger"
)

type App struct {
	Name string
	Cfg  *Config
	Log  *slog.Logger
}

func New(name string, cfg *Config) (*App, error) {
	log, err := logger.New(name, cfg.Log)
	if err != nil {
		return nil, err
	}

	return &App{
		Name: name,
		Cfg:  cfg,
		Log:  log,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.Log.Info("running telewall",
		"storage_driver", a.Cfg.Storage.Driver,
		"cache_driver", a.Cfg.Cache.Driver,
	)

	deps, err := a.initDependencies(ctx)
	if err != nil {
		a.Log.Error("failed to init dependencies", "error", err)
		return err
	}

	return a.runServices(ctx, deps)
}

// Migrate применяет миграции и завершается
func Migrate(ctx context.Context, name string, cfg *MigrateConfig) error {
	log, err := logger.New(name, cfg.Log)
	if err != nil {
		return err
	}

	db, err := cfg.Postgres.NewConnection(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	if err := pg.RunMigrations(ctx, db, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
