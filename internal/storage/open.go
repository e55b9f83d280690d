package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/perfutils/internal/config"
)

// Open connects the log store selected by cfg.Driver. Postgres databases
// are migrated from migrationsDir first; SQLite creates its schema itself.
// The returned func releases the store.
func Open(ctx context.Context, cfg config.DatabaseConfig, migrationsDir string, log *slog.Logger) (LogStore, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := cfg.DSN()
		version, err := RunMigrations(dsn, migrationsDir)
		if err != nil {
			return nil, nil, err
		}
		log.Info("migrations applied", "version", version)

		db, err := New(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting database: %w", err)
		}
		log.Info("database connected", "driver", cfg.Driver, "host", cfg.Host, "name", cfg.Name)
		return db, db.Close, nil

	case config.DriverSQLite, "":
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database opened", "driver", config.DriverSQLite, "path", cfg.Path)
		return s, func() { s.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
