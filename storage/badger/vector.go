package badger

import (
	"context"
	"math"
	"slices"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// maxChunksPerTxn bounds the number of chunks written per transaction
// to stay below Badger's transaction size limit.
const maxChunksPerTxn = 256

// VectorStore implements storage.VectorStore on top of BadgerDB with an
// exhaustive cosine similarity scan. Suitable for small corpora and tests.
type VectorStore struct {
	backend *Backend
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates a new VectorStore.
func NewVectorStore(backend *Backend) *VectorStore {
	return &VectorStore{
		backend: backend,
	}
}

// UpsertAll stores embedded chunks keyed by chunk id.
func (s *VectorStore) UpsertAll(ctx context.Context, chunks []*core.Chunk) error {
	for _, chunk := range chunks {
		if len(chunk.Vector) == 0 {
			return storage.ErrMissingVector
		}
	}
	for batch := range slices.Chunk(chunks, maxChunksPerTxn) {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.backend.WithTx(func(tx *badger.Txn) error {
			for _, chunk := range batch {
				if err := tx.Set(makeChunkKey(chunk.ID), storage.MarshalChunk(chunk)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
	}
	return nil
}

// Search finds chunks similar to the given vector.
func (s *VectorStore) Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]*core.ScoredChunk, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.ScoredChunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(chunk.Vector) == 0 {
				continue
			}

			score := cosineSimilarity(vector, chunk.Vector)
			if score >= minScore {
				results = append(results, &core.ScoredChunk{Chunk: chunk, Score: score})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteDocumentChunks removes the chunks of documentID from fromIndex on.
func (s *VectorStore) DeleteDocumentChunks(ctx context.Context, documentID string, fromIndex int) error {
	prefix := makeDocumentChunkPrefix(documentID)
	var stale [][]byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			// Ids of other documents can share the prefix, e.g. "a#1#0" for "a".
			idx, err := strconv.Atoi(string(key[len(prefix):]))
			if err != nil || idx < fromIndex {
				continue
			}
			stale = append(stale, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	for batch := range slices.Chunk(stale, maxChunksPerTxn) {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.backend.WithTx(func(tx *badger.Txn) error {
			for _, key := range batch {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; the backend is owned by the caller.
func (s *VectorStore) Close() error {
	return nil
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length are compared over their common prefix.
func cosineSimilarity(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
