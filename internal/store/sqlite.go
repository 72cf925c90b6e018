package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/migrations/clientdb"
)

// ClientDB wraps the SQLite connection backing the client's local store.
type ClientDB struct {
	*sql.DB
	logger *logger.Logger
}

// NewConnectSQLite opens (and creates, if needed) the SQLite database file at
// path and verifies the connection with a ping. The pool is limited to a
// single connection: SQLite allows one writer at a time, and the single
// connection also keeps ":memory:" databases coherent across the pool.
func NewConnectSQLite(ctx context.Context, path string, log *logger.Logger) (*ClientDB, error) {
	if !inMemoryDSN(path) {
		if err := createLocalDBFileIfNotExists(path); err != nil {
			log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
			return nil, fmt.Errorf("error creating database file: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to local database successfully")

	return &ClientDB{
		DB:     conn,
		logger: log,
	}, nil
}

// Migrate applies the embedded client schema migrations.
func (db *ClientDB) Migrate() error {
	return clientdb.Migrate(db.DB)
}

func inMemoryDSN(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	return nil
}
