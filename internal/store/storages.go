package store

import (
	"context"
	"fmt"

	"github.com/dishcraft/menusync/internal/config"
	"github.com/dishcraft/menusync/internal/logger"
)

// ClientStorages groups the client-side storage repositories into a single
// value that can be passed around the service layer.
type ClientStorages struct {
	// Catalog is the SQLite-backed local store holding catalog items and
	// the sync queue.
	Catalog LocalStore
}

// NewClientStorages initialises the client storage layer using the supplied
// configuration and logger. It opens (creating if needed) the SQLite file at
// cfg.LocalDBPath, runs pending schema migrations, and wires a fresh
// [LocalStore] on top.
func NewClientStorages(ctx context.Context, cfg *config.ClientConfig, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating client storages...")

	db, err := NewConnectSQLite(ctx, cfg.LocalDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &ClientStorages{
		Catalog: NewLocalCatalogRepository(db, logger),
	}, nil
}

// Storages groups the server-side storage repositories.
type Storages struct {
	// Menu is the PostgreSQL-backed authoritative menu store.
	Menu MenuRepository
}

// NewStorages initialises the server storage layer: it connects to PostgreSQL,
// runs pending schema migrations, and wires a fresh [MenuRepository].
func NewStorages(ctx context.Context, cfg *config.ServerConfig, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating server storages...")

	db, err := NewConnectPostgres(ctx, config.DB{DSN: cfg.DSN}, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		Menu: NewMenuRepository(db, logger),
	}, nil
}
