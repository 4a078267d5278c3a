package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/IshaanNene/critterdex/internal/types"
)

// SQLiteStore writes one table per target into a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	tx     *sql.Tx
	path   string
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: the pending transaction and every read share it.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		path:   cleanPath,
		logger: logger.With("component", "sqlite_storage"),
	}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// begin returns the pending transaction, starting one if needed.
// Callers hold s.mu.
func (s *SQLiteStore) begin(ctx context.Context) (*sql.Tx, error) {
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Statement: "BEGIN", Err: err}
	}
	s.tx = tx
	return tx, nil
}

func (s *SQLiteStore) ResetTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	statements := []string{
		"DROP TABLE IF EXISTS " + quoteIdent(table),
		"CREATE TABLE " + quoteIdent(table) + " (name TEXT PRIMARY KEY, description TEXT NOT NULL)",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &types.StorageError{Backend: s.Name(), Statement: stmt, Err: err}
		}
	}
	s.logger.Debug("table reset", "table", table)
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, table string, rec *types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	stmt := "INSERT INTO " + quoteIdent(table) + " (name, description) VALUES (?, ?)"
	if _, err := tx.ExecContext(ctx, stmt, rec.Name, rec.Description); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: name %q: %w", table, rec.Name, types.ErrDuplicate)
		}
		return &types.StorageError{
			Backend:   s.Name(),
			Statement: fmt.Sprintf("%s [%q, %q]", stmt, rec.Name, rec.Preview(40)),
			Err:       err,
		}
	}
	return nil
}

func (s *SQLiteStore) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: s.Name(), Statement: "COMMIT", Err: err}
	}
	s.logger.Debug("transaction committed", "path", s.path)
	return nil
}

func (s *SQLiteStore) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollback()
}

func (s *SQLiteStore) rollback() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return &types.StorageError{Backend: s.Name(), Statement: "ROLLBACK", Err: err}
	}
	s.logger.Debug("transaction rolled back", "path", s.path)
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	rbErr := s.rollback()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}
	return rbErr
}

// Records returns the rows of table ordered by insertion, including rows
// pending in the current transaction.
func (s *SQLiteStore) Records(ctx context.Context, table string) ([]types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.ErrStoreClosed
	}

	stmt := "SELECT name, description FROM " + quoteIdent(table) + " ORDER BY rowid"
	var (
		rows *sql.Rows
		err  error
	)
	if s.tx != nil {
		rows, err = s.tx.QueryContext(ctx, stmt)
	} else {
		rows, err = s.db.QueryContext(ctx, stmt)
	}
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Statement: stmt, Err: err}
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		var rec types.Record
		if err := rows.Scan(&rec.Name, &rec.Description); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Statement: stmt, Err: err}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ Store = (*SQLiteStore)(nil)
