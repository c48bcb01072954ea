// Package database opens the configured core.Store.
package database

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/flashcards/internal/config"
	"github.com/JonMunkholm/flashcards/internal/core"
	"github.com/JonMunkholm/flashcards/internal/database/postgres"
	"github.com/JonMunkholm/flashcards/internal/database/sqlite"
	"github.com/JonMunkholm/flashcards/internal/logging"
)

// Handle is an open store together with what the server needs around it.
type Handle struct {
	Store core.Store

	ping  func(context.Context) error
	close func()
}

// Ping checks the database is reachable.
func (h *Handle) Ping(ctx context.Context) error {
	return h.ping(ctx)
}

// Close releases the connections.
func (h *Handle) Close() {
	h.close()
}

// Open connects to the database selected by cfg.Driver, migrating the schema
// first when cfg.AutoMigrate is set. The sqlite store always migrates.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Handle, error) {
	logger := logging.FromContext(ctx)

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		logger.Info("database connected", "driver", cfg.Driver, "max_conns", cfg.MaxConns)
		return &Handle{
			Store: postgres.NewStore(pool),
			ping:  pool.Ping,
			close: pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store := sqlite.NewStore(db)
		sqlDB, err := db.DB()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		logger.Info("database connected", "driver", cfg.Driver, "path", cfg.SQLitePath)
		return &Handle{
			Store: store,
			ping:  sqlDB.PingContext,
			close: func() { store.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
