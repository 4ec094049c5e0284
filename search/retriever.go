package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

const (
	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 3

	// DefaultMinScore is the minimum cosine similarity of a retrieved chunk.
	DefaultMinScore float32 = 0.20
)

// Retriever finds the chunks most similar to a query.
type Retriever struct {
	embedder ai.Embedder
	store    storage.VectorStore
	topK     int
	minScore float32
	monitor  SearchMonitor
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithTopK sets the maximum number of chunks returned.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k <= 0 {
			return ErrInvalidTopK
		}
		r.topK = k
		return nil
	}
}

// WithMinScore sets the similarity threshold.
func WithMinScore(score float32) Option {
	return func(r *Retriever) error {
		if score < -1 || score > 1 {
			return ErrInvalidMinScore
		}
		r.minScore = score
		return nil
	}
}

// WithMonitor installs a monitor used by Retrieve.
func WithMonitor(m SearchMonitor) Option {
	return func(r *Retriever) error {
		if m != nil {
			r.monitor = m
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "retriever")
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(embedder ai.Embedder, store storage.VectorStore, opts ...Option) (*Retriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrVectorStoreRequired
	}

	r := &Retriever{
		embedder: embedder,
		store:    store,
		topK:     DefaultTopK,
		minScore: DefaultMinScore,
		monitor:  &noopMonitor{},
		logger:   slog.Default().With("component", "retriever"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// TopK returns the configured result limit.
func (r *Retriever) TopK() int {
	return r.topK
}

// MinScore returns the configured similarity threshold.
func (r *Retriever) MinScore() float32 {
	return r.minScore
}

// Retrieve returns up to TopK chunks similar to query, highest score first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]*core.ScoredChunk, error) {
	return r.RetrieveWithMonitor(ctx, query, r.monitor)
}

// RetrieveWithMonitor is Retrieve reporting to monitor instead of the
// configured one.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, monitor SearchMonitor) ([]*core.ScoredChunk, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	monitor.AfterEmbedding(len(embedding))

	hits, err := r.store.Search(ctx, embedding, r.topK, r.minScore)
	if err != nil {
		r.logger.Error("error querying for similar chunks", "err", err)
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	monitor.AfterVectorSearch(hits)

	for _, hit := range hits {
		if containsAllQueryWords(hit.Chunk.Text, query) {
			monitor.VerbatimHit(hit)
		}
	}

	r.logger.Debug("retrieved chunks", "hits", len(hits), "topK", r.topK, "minScore", r.minScore)
	monitor.Finish(hits)
	return hits, nil
}

// Augment appends the text of hits to query as answering context.
// With no hits the query is returned unchanged.
func Augment(query string, hits []*core.ScoredChunk) string {
	if len(hits) == 0 {
		return query
	}
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.Chunk.Text)
	}
	var b strings.Builder
	b.WriteString(query)
	b.WriteString("\n\nAnswer using the following information:\n")
	b.WriteString(strings.Join(texts, "\n\n"))
	return b.String()
}
