package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

const defaultTable = "document_embeddings"

var identifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store implements storage.VectorStore on a PostgreSQL table with a
// pgvector column, using cosine distance.
type Store struct {
	db        *sql.DB
	table     string
	dimension int
	ownsDB    bool
	logger    *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithTable sets the table name. Default is "document_embeddings".
func WithTable(name string) Option {
	return func(s *Store) error {
		if !identifier.MatchString(name) {
			return fmt.Errorf("pgvector: invalid table name %q", name)
		}
		s.table = name
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "pgvector-store")
		return nil
	}
}

// Open connects to PostgreSQL using dsn, verifies the connection and
// creates the extension and table if needed.
func Open(ctx context.Context, dsn string, dimension int, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgvector: ping: %w", err)
	}
	s, err := New(db, dimension, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. The caller keeps ownership of db.
func New(db *sql.DB, dimension int, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("pgvector: db required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("pgvector: dimension must be positive, got %d", dimension)
	}
	s := &Store{
		db:        db,
		table:     defaultTable,
		dimension: dimension,
		logger:    slog.Default().With("component", "pgvector-store"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Migrate creates the vector extension and the embeddings table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("pgvector: create extension: %w", err)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  chunk_id     TEXT PRIMARY KEY,
  document_id  TEXT NOT NULL,
  chunk_index  INTEGER NOT NULL,
  text         TEXT NOT NULL,
  start_offset INTEGER NOT NULL,
  end_offset   INTEGER NOT NULL,
  metadata     JSONB,
  embedding    vector(%d) NOT NULL
)`, s.table, s.dimension))
	if err != nil {
		return fmt.Errorf("pgvector: create table: %w", err)
	}
	return nil
}

// UpsertAll writes all chunks in one transaction.
func (s *Store) UpsertAll(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, chunk := range chunks {
		if len(chunk.Vector) == 0 {
			return storage.ErrMissingVector
		}
		if len(chunk.Vector) != s.dimension {
			return fmt.Errorf("%w: chunk %s has %d, table has %d",
				storage.ErrDimensionMismatch, chunk.ID, len(chunk.Vector), s.dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
INSERT INTO %s (chunk_id, document_id, chunk_index, text, start_offset, end_offset, metadata, embedding)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (chunk_id) DO UPDATE SET
  document_id = EXCLUDED.document_id,
  chunk_index = EXCLUDED.chunk_index,
  text = EXCLUDED.text,
  start_offset = EXCLUDED.start_offset,
  end_offset = EXCLUDED.end_offset,
  metadata = EXCLUDED.metadata,
  embedding = EXCLUDED.embedding`, s.table)

	for _, chunk := range chunks {
		meta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query,
			chunk.ID, chunk.DocumentID, chunk.Index, chunk.Text, chunk.Start, chunk.End,
			meta, pgvector.NewVector(chunk.Vector))
		if err != nil {
			return fmt.Errorf("pgvector: upsert %s: %w", chunk.ID, err)
		}
	}
	return tx.Commit()
}

// Search returns the closest chunks whose cosine similarity is at least minScore.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]*core.ScoredChunk, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
SELECT chunk_id, document_id, chunk_index, text, start_offset, end_offset, metadata, 1 - (embedding <=> $1) AS score
FROM %s
WHERE 1 - (embedding <=> $1) >= $2
ORDER BY embedding <=> $1
LIMIT $3`, s.table), pgvector.NewVector(vector), minScore, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*core.ScoredChunk
	for rows.Next() {
		var (
			chunk     core.Chunk
			metaBytes []byte
			score     float64
		)
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Text,
			&chunk.Start, &chunk.End, &metaBytes, &score); err != nil {
			return nil, err
		}
		if len(metaBytes) > 0 {
			if err := json.Unmarshal(metaBytes, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("%w: metadata of %s: %w", storage.ErrSerializationFailed, chunk.ID, err)
			}
		}
		results = append(results, &core.ScoredChunk{Chunk: &chunk, Score: float32(score)})
	}
	return results, rows.Err()
}

// DeleteDocumentChunks deletes the rows of documentID from fromIndex on.
func (s *Store) DeleteDocumentChunks(ctx context.Context, documentID string, fromIndex int) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE document_id = $1 AND chunk_index >= $2`, s.table),
		documentID, fromIndex)
	if err != nil {
		return fmt.Errorf("pgvector: delete chunks of %s: %w", documentID, err)
	}
	return nil
}

// Close closes the database handle when the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
