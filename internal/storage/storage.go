package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/critterdex/internal/config"
	"github.com/IshaanNene/critterdex/internal/types"
)

// Store is the interface for all storage backends.
//
// Writes accumulate in a pending transaction that starts with the first
// ResetTable or Insert after a Commit or Rollback. Nothing is visible to
// other readers until Commit.
type Store interface {
	// Name returns the storage backend identifier.
	Name() string

	// ResetTable drops table if it exists and creates it empty.
	ResetTable(ctx context.Context, table string) error

	// Insert adds one record to table. A name already present in the table
	// returns an error wrapping types.ErrDuplicate.
	Insert(ctx context.Context, table string, rec *types.Record) error

	// Commit makes all pending writes durable.
	Commit(ctx context.Context) error

	// Rollback discards all pending writes.
	Rollback() error

	// Close discards pending writes and releases resources.
	Close() error
}

// Open creates the backend selected by cfg.Type.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.Path, logger)
	case "mongodb":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	case "json", "jsonl", "csv":
		return NewFileStore(cfg.Type, cfg.OutputDir, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// quoteIdent quotes a table name for use in SQL text.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
