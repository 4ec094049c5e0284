package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

const defaultChunkSize = 500

// Result describes the outcome of one ingestion run.
type Result struct {
	Chunks  int
	Changed int
	Skipped bool
}

// Observer is notified once per run, including skipped runs.
type Observer interface {
	RunFinished(result Result, err error, elapsed time.Duration)
}

// Pipeline reads documents, filters unchanged ones by content hash,
// normalizes and chunks the rest and writes them to the vector store.
// At most one run is active at a time; overlapping requests are skipped.
type Pipeline struct {
	sources    []DocumentSource
	hashes     storage.HashRepository
	writer     *VectorWriter
	normalizer *Normalizer
	chunker    Splitter
	state      *StateTracker
	observer   Observer
	pool       *ants.Pool
	running    atomic.Bool
	logger     *slog.Logger
}

// Splitter turns normalized documents into chunks. *Chunker is the
// default implementation.
type Splitter interface {
	SplitAll(docs []core.Document) []*core.Chunk
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *Normalizer) Option {
	return func(p *Pipeline) error {
		if n != nil {
			p.normalizer = n
		}
		return nil
	}
}

// WithChunker replaces the default chunker (500 tokens).
func WithChunker(c *Chunker) Option {
	return func(p *Pipeline) error {
		if c != nil {
			p.chunker = c
		}
		return nil
	}
}

// WithSplitter replaces the chunking stage with a custom splitter.
// A splitter that panics or returns no chunks aborts the run with ErrTransform.
func WithSplitter(s Splitter) Option {
	return func(p *Pipeline) error {
		if s != nil {
			p.chunker = s
		}
		return nil
	}
}

// WithStateTracker shares an existing tracker, e.g. with a status endpoint.
func WithStateTracker(t *StateTracker) Option {
	return func(p *Pipeline) error {
		if t != nil {
			p.state = t
		}
		return nil
	}
}

// WithObserver registers a run observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) error {
		p.observer = o
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	sources []DocumentSource,
	hashes storage.HashRepository,
	writer *VectorWriter,
	opts ...Option,
) (*Pipeline, error) {
	if len(sources) == 0 {
		return nil, ErrSourceRequired
	}
	if hashes == nil {
		return nil, ErrHashRepositoryRequired
	}
	if writer == nil {
		return nil, ErrVectorWriterRequired
	}

	chunker, err := NewChunker(defaultChunkSize)
	if err != nil {
		return nil, err
	}

	// Runs never overlap; one worker is enough.
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		sources:    sources,
		hashes:     hashes,
		writer:     writer,
		normalizer: NewNormalizer(DefaultNormalizerConfig()),
		chunker:    chunker,
		state:      NewStateTracker(),
		pool:       pool,
		logger:     slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Run performs one ingestion run synchronously and returns the number of
// chunks written. If a run is already in progress it returns 0 and no error.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Info("ingestion already running, skipping")
		p.notify(Result{Skipped: true}, nil, 0)
		return 0, nil
	}
	res, err := p.execute(ctx)
	return res.Chunks, err
}

// Trigger starts a run on the background worker and returns immediately.
// The run outlives ctx cancellation but keeps its values.
// If a run is already in progress the future is already complete with
// Result.Skipped set.
func (p *Pipeline) Trigger(ctx context.Context) *Future {
	f := newFuture()
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Info("ingestion already running, skipping trigger")
		p.notify(Result{Skipped: true}, nil, 0)
		f.complete(Result{Skipped: true}, nil)
		return f
	}

	runCtx := context.WithoutCancel(ctx)
	if err := p.pool.Submit(func() {
		f.complete(p.execute(runCtx))
	}); err != nil {
		p.running.Store(false)
		f.complete(Result{}, fmt.Errorf("submit ingestion run: %w", err))
	}
	return f
}

// Status returns a consistent snapshot of the current progress.
func (p *Pipeline) Status() core.ProcessingState {
	return p.state.Snapshot()
}

// Release releases the worker pool without waiting for a triggered run.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// ReleaseTimeout releases the worker pool and waits up to timeout for a
// triggered run to finish. Releasing twice is not an error.
func (p *Pipeline) ReleaseTimeout(timeout time.Duration) error {
	if p.pool == nil {
		return nil
	}
	err := p.pool.ReleaseTimeout(timeout)
	if err != nil && !errors.Is(err, ants.ErrPoolClosed) {
		return fmt.Errorf("release ingestion worker: %w", err)
	}
	return nil
}

// execute runs the pipeline. The caller must hold the running flag.
func (p *Pipeline) execute(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			p.state.Fail()
			p.logger.Error("ingestion run failed", "err", err)
		}
		p.running.Store(false)
		p.notify(res, err, time.Since(start))
	}()

	p.state.Begin()

	docs := p.readAll(ctx)
	p.state.SetTotal(len(docs))

	changed, newHashes, err := p.filterChanged(ctx, docs)
	if err != nil {
		return res, err
	}
	res.Changed = len(changed)
	p.state.SetChanged(len(changed))
	p.logger.Info("documents scanned", "total", len(docs), "changed", len(changed))

	if len(changed) == 0 {
		p.state.Finish(0)
		return res, nil
	}

	chunks, err := p.split(changed)
	if err != nil {
		return res, err
	}

	written, err := p.writer.Write(ctx, chunks)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err := p.hashes.PutHashes(ctx, newHashes); err != nil {
		return res, fmt.Errorf("commit document hashes: %w", err)
	}

	res.Chunks = written
	p.state.Finish(written)
	p.logger.Info("ingestion run complete", "documents", len(changed), "chunks", written, "elapsed", time.Since(start))
	return res, nil
}

func (p *Pipeline) readAll(ctx context.Context) []core.Document {
	var docs []core.Document
	for _, src := range p.sources {
		read, err := src.Read(ctx)
		if err != nil {
			p.logger.Error("document source failed", "source", src.Name(), "err", err)
			continue
		}
		docs = append(docs, read...)
	}
	return docs
}

// filterChanged normalizes docs and keeps those whose hash differs from the
// stored one. The hash covers the normalizer configuration and the
// normalized text.
func (p *Pipeline) filterChanged(ctx context.Context, docs []core.Document) ([]core.Document, map[string]string, error) {
	fingerprint := p.normalizer.Config().Fingerprint()
	var changed []core.Document
	hashes := make(map[string]string)

	for _, doc := range docs {
		normalized := p.normalizer.Normalize(doc)
		if strings.TrimSpace(normalized.Text) == "" {
			continue
		}
		hash := core.ContentHash(fingerprint + "\x00" + normalized.Text)

		stored, err := p.hashes.GetHash(ctx, doc.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return nil, nil, fmt.Errorf("load hash of %s: %w", doc.ID, err)
		case stored.Hash == hash:
			continue
		}
		changed = append(changed, normalized)
		hashes[doc.ID] = hash
	}
	return changed, hashes, nil
}

func (p *Pipeline) split(docs []core.Document) (chunks []*core.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTransform, r)
		}
	}()
	chunks = p.chunker.SplitAll(docs)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced from %d documents", ErrTransform, len(docs))
	}
	return chunks, nil
}

func (p *Pipeline) notify(res Result, err error, elapsed time.Duration) {
	if p.observer != nil {
		p.observer.RunFinished(res, err, elapsed)
	}
}

// Future is the handle of a triggered run.
type Future struct {
	done   chan struct{}
	result Result
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(res Result, err error) {
	f.result = res
	f.err = err
	close(f.done)
}

// Done is closed when the run has finished or was skipped.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the run finishes or ctx is done.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
