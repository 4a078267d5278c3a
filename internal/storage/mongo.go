package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/critterdex/internal/types"
)

// MongoStore writes one collection per table. Writes are buffered and
// applied at Commit: each pending collection is dropped, given a unique
// index on name, and filled. Commit is not atomic across collections.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
	buf      *tableBuffer
	mu       sync.Mutex
	closed   bool
	count    int
	logger   *slog.Logger
}

// NewMongoStore connects to the server at uri and uses database.
func NewMongoStore(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStore{
		client:   client,
		database: client.Database(database),
		buf:      newTableBuffer(),
		logger:   logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) ResetTable(_ context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	s.buf.reset(table)
	return nil
}

func (s *MongoStore) Insert(_ context.Context, table string, rec *types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	return s.buf.add(table, rec)
}

func (s *MongoStore) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	defer s.buf.clear()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, table := range s.buf.tables() {
		if err := s.writeCollection(ctx, table, s.buf.records(table)); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) writeCollection(ctx context.Context, table string, records []*types.Record) error {
	coll := s.database.Collection(table)

	if err := coll.Drop(ctx); err != nil {
		return &types.StorageError{Backend: s.Name(), Statement: "drop " + table, Err: err}
	}

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		return &types.StorageError{Backend: s.Name(), Statement: "createIndex " + table + ".name", Err: err}
	}

	if len(records) == 0 {
		return nil
	}
	docs := make([]any, len(records))
	for i, rec := range records {
		docs[i] = rec
	}
	if _, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", table, types.ErrDuplicate)
		}
		return &types.StorageError{Backend: s.Name(), Statement: "insertMany " + table, Err: err}
	}

	s.count += len(records)
	s.logger.Debug("collection written", "collection", table, "count", len(records), "total", s.count)
	return nil
}

func (s *MongoStore) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.clear()
	return nil
}

func (s *MongoStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.buf.clear()

	s.logger.Info("mongodb storage closing", "total_records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
