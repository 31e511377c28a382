// Package app opens the configured storage backend and builds the task store on top of it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"
	"github.com/rpggio/todoflow/internal/config"
	"github.com/rpggio/todoflow/internal/domain/activity"
	"github.com/rpggio/todoflow/internal/domain/task"
	"github.com/rpggio/todoflow/internal/natskv"
	"github.com/rpggio/todoflow/internal/sqlite"
)

// App holds the task store and the resources behind it.
type App struct {
	Store *task.Store
	// Activity is nil when the storage driver has no activity log.
	Activity *activity.Service
	Logger   *slog.Logger

	closers []func() error
}

// Open connects the backend selected by cfg and loads the task list.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &App{Logger: logger}

	var slot task.Slot
	var listeners []task.Listener

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := openSQLite(cfg.DB.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		slot = sqlite.NewSlotRepository(db)
		a.Activity = activity.NewService(sqlite.NewActivityRepository(db), logger)
		listeners = append(listeners, a.Activity.Recorder())
		logger.Debug("opened sqlite storage", "path", cfg.DB.Path)
	case config.DriverNATS:
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("todoflow"))
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		a.closers = append(a.closers, func() error {
			nc.Close()
			return nil
		})

		kv, err := natskv.New(ctx, natskv.Config{Conn: nc, Bucket: cfg.NATS.Bucket})
		if err != nil {
			a.Close()
			return nil, err
		}
		slot = kv
		logger.Debug("opened nats storage", "url", cfg.NATS.URL, "bucket", cfg.NATS.Bucket)
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidConfig, cfg.Storage.Driver)
	}

	a.Store = task.NewStore(ctx, task.StoreConfig{
		Slot:      slot,
		Key:       cfg.Storage.Key,
		Logger:    logger.With("component", "task_store"),
		Listeners: listeners,
	})
	return a, nil
}

// Close releases backend resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openSQLite(path string) (*sqlite.DB, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}

	db, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
