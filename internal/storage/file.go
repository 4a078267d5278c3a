package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/critterdex/internal/types"
)

// FileStore writes one file per table under a directory, named
// <table>.<format>. Writes are buffered and each pending table's file is
// rewritten at Commit.
type FileStore struct {
	format string
	dir    string
	buf    *tableBuffer
	mu     sync.Mutex
	closed bool
	count  int
	logger *slog.Logger
}

// NewFileStore creates a file store for format json, jsonl, or csv.
func NewFileStore(format, outputDir string, logger *slog.Logger) (*FileStore, error) {
	switch format {
	case "json", "jsonl", "csv":
	default:
		return nil, fmt.Errorf("unsupported file format: %s", format)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &FileStore{
		format: format,
		dir:    outputDir,
		buf:    newTableBuffer(),
		logger: logger.With("component", format+"_storage"),
	}, nil
}

func (s *FileStore) Name() string { return s.format }

// Path returns the file a table is written to.
func (s *FileStore) Path(table string) string {
	return filepath.Join(s.dir, table+"."+s.format)
}

func (s *FileStore) ResetTable(_ context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	s.buf.reset(table)
	return nil
}

func (s *FileStore) Insert(_ context.Context, table string, rec *types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	return s.buf.add(table, rec)
}

func (s *FileStore) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	defer s.buf.clear()

	for _, table := range s.buf.tables() {
		if err := s.writeTable(table, s.buf.records(table)); err != nil {
			return &types.StorageError{Backend: s.Name(), Statement: "write " + s.Path(table), Err: err}
		}
	}
	return nil
}

func (s *FileStore) writeTable(table string, records []*types.Record) error {
	path := s.Path(table)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	switch s.format {
	case "json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
	case "jsonl":
		enc := json.NewEncoder(f)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("encode JSONL: %w", err)
			}
		}
	case "csv":
		w := csv.NewWriter(f)
		if err := w.Write([]string{"name", "description"}); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
		for _, rec := range records {
			if err := w.Write(rec.ToRow()); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("flush CSV: %w", err)
		}
	}

	s.count += len(records)
	s.logger.Info("table written", "path", path, "records", len(records))
	return f.Close()
}

func (s *FileStore) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.clear()
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if n := s.buf.pending(); n > 0 {
		s.logger.Warn("discarding uncommitted records", "count", n)
	}
	s.buf.clear()
	s.logger.Debug("file storage closed", "dir", s.dir, "total_records", s.count)
	return nil
}

var _ Store = (*FileStore)(nil)
