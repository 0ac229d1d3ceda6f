package storage

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/armorer/blackmarket/internal/config"
	"github.com/armorer/blackmarket/internal/database"
	"github.com/armorer/blackmarket/internal/storage/memory"
	"github.com/armorer/blackmarket/internal/storage/sqldb"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, dbLog zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		mgr := database.NewManager(dbLog)
		if err := mgr.Connect(); err != nil {
			return nil, fmt.Errorf("connecting database: %w", err)
		}
		if mgr.ShouldSaveLocal {
			// Postgres was unreachable: run on in-memory SQLite with
			// periodic dumps instead.
			return sqldb.New(mgr.DB, nil, sqldb.WithPeriodicDump(
				mgr.DumpMemoryDBToDisk,
				cfg.Sqlite.DumpPath,
				time.Duration(cfg.Sqlite.DumpIntervalSeconds)*time.Second,
			)), nil
		}
		return sqldb.New(mgr.DB, nil), nil

	case "sqlite":
		mgr := database.NewManager(dbLog)
		db, err := mgr.GetSqliteDB("")
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return sqldb.New(db, nil, sqldb.WithPeriodicDump(
			mgr.DumpMemoryDBToDisk,
			cfg.Sqlite.DumpPath,
			time.Duration(cfg.Sqlite.DumpIntervalSeconds)*time.Second,
		)), nil

	case "memory":
		return memory.New(cfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
