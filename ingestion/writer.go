package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

const (
	defaultEmbedBatchSize = 32
	defaultMaxAttempts    = 3
	defaultBaseDelay      = 500 * time.Millisecond
)

// VectorWriter embeds chunks and upserts them into a vector store.
type VectorWriter struct {
	embedder    ai.Embedder
	store       storage.VectorStore
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	progress    Progress
	logger      *slog.Logger
}

// WriterOption configures a VectorWriter.
type WriterOption func(*VectorWriter) error

// WithBatchSize sets how many chunk texts are embedded per request.
// Default is 32.
func WithBatchSize(size int) WriterOption {
	return func(w *VectorWriter) error {
		if size < 1 {
			size = 1
		}
		w.batchSize = size
		return nil
	}
}

// WithRetry sets the retry policy for embedding requests.
func WithRetry(maxAttempts int, baseDelay time.Duration) WriterOption {
	return func(w *VectorWriter) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		w.maxAttempts = maxAttempts
		w.baseDelay = baseDelay
		return nil
	}
}

// WithProgress reports embedded chunks to p.
func WithProgress(p Progress) WriterOption {
	return func(w *VectorWriter) error {
		w.progress = p
		return nil
	}
}

// WithWriterLogger sets a custom logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *VectorWriter) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger.With("component", "vector-writer")
		return nil
	}
}

// NewVectorWriter creates a writer for the given embedder and store.
func NewVectorWriter(embedder ai.Embedder, store storage.VectorStore, opts ...WriterOption) (*VectorWriter, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrVectorStoreRequired
	}
	w := &VectorWriter{
		embedder:    embedder,
		store:       store,
		batchSize:   defaultEmbedBatchSize,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      slog.Default().With("component", "vector-writer"),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Write embeds every chunk and stores all of them with a single upsert.
// Nothing is stored unless every embedding succeeds. Afterwards chunks of
// the written documents past their new last index are deleted.
func (w *VectorWriter) Write(ctx context.Context, chunks []*core.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	w.logger.Info("embedding chunks", "chunks", len(chunks), "batch", w.batchSize)
	if w.progress != nil {
		w.progress.Start(len(chunks))
		defer w.progress.Finish()
	}
	for batch := range slices.Chunk(chunks, w.batchSize) {
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			vectors, err = w.embedder.EmbedTexts(ctx, texts)
			return err
		}, w.maxAttempts, w.baseDelay)
		if err != nil {
			return 0, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(batch), len(vectors))
		}
		for i, c := range batch {
			c.Vector = vectors[i]
		}
		if w.progress != nil {
			w.progress.Increment(len(batch))
		}
	}

	if err := w.store.UpsertAll(ctx, chunks); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	if err := w.purgeStale(ctx, chunks); err != nil {
		return 0, err
	}
	w.logger.Info("chunks stored", "chunks", len(chunks))
	return len(chunks), nil
}

// purgeStale drops chunks left over from longer previous versions of the
// documents in chunks.
func (w *VectorWriter) purgeStale(ctx context.Context, chunks []*core.Chunk) error {
	counts := make(map[string]int)
	var docs []string
	for _, c := range chunks {
		if _, ok := counts[c.DocumentID]; !ok {
			docs = append(docs, c.DocumentID)
		}
		counts[c.DocumentID] = max(counts[c.DocumentID], c.Index+1)
	}
	for _, id := range docs {
		if err := w.store.DeleteDocumentChunks(ctx, id, counts[id]); err != nil {
			return fmt.Errorf("delete stale chunks of %s: %w", id, err)
		}
	}
	return nil
}
