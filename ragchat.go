// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ragchat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/ai/ollama"
	"github.com/poiesic/ragchat/ai/openai"
	"github.com/poiesic/ragchat/chat"
	"github.com/poiesic/ragchat/config"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/poiesic/ragchat/search"
	"github.com/poiesic/ragchat/server"
	"github.com/poiesic/ragchat/storage"
	"github.com/poiesic/ragchat/storage/badger"
	"github.com/poiesic/ragchat/storage/pgvector"
	"github.com/poiesic/ragchat/storage/qdrant"
)

// shutdownTimeout bounds how long Close waits for a triggered ingestion run.
const shutdownTimeout = 30 * time.Second

// App wires storage, the model provider, ingestion and chat from a Config.
type App struct {
	config   *config.Config
	repos    *badger.Repositories
	vectors  storage.VectorStore
	provider ai.Provider
	lister   ai.ModelLister
	metrics  *server.Metrics
	pipeline *ingestion.Pipeline
	search   *search.Retriever
	chat     *chat.Orchestrator
	sessions *chat.SessionService
	uploader *ingestion.Uploader
	logger   *slog.Logger
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	provider ai.Provider
	vectors  storage.VectorStore
	inMemory bool
	progress ingestion.Progress
}

// WithProvider uses p instead of building one from the ai section.
// The App takes ownership of p.
func WithProvider(p ai.Provider) Option {
	return func(o *appOptions) {
		o.provider = p
	}
}

// WithVectorStore uses vs instead of the configured vector store.
// The App closes vs if it implements io.Closer.
func WithVectorStore(vs storage.VectorStore) Option {
	return func(o *appOptions) {
		o.vectors = vs
	}
}

// WithInMemoryStorage keeps sessions, messages and hashes in memory.
func WithInMemoryStorage() Option {
	return func(o *appOptions) {
		o.inMemory = true
	}
}

// WithProgress reports embedding progress during ingestion.
func WithProgress(p ingestion.Progress) Option {
	return func(o *appOptions) {
		o.progress = p
	}
}

// Open builds an App. Close releases everything it opened.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}

	app := &App{
		config:  cfg,
		metrics: server.NewMetrics(),
		logger:  slog.Default().With("component", "app"),
	}
	if err := app.open(ctx, options); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) open(ctx context.Context, options *appOptions) error {
	backend, err := badger.OpenBackend(a.config.Storage.Path, options.inMemory)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.repos, err = badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return fmt.Errorf("open repositories: %w", err)
	}

	a.provider = options.provider
	if a.provider == nil {
		provider, err := newProvider(a.config)
		if err != nil {
			return fmt.Errorf("create ai provider: %w", err)
		}
		a.provider = provider
	}
	a.lister, err = modelLister(a.config, a.provider)
	if err != nil {
		return fmt.Errorf("create model lister: %w", err)
	}

	a.vectors = options.vectors
	if a.vectors == nil {
		vectors, err := a.openVectorStore(ctx)
		if err != nil {
			return fmt.Errorf("open vector store: %w", err)
		}
		a.vectors = vectors
	}

	if a.pipeline, err = a.newPipeline(options.progress); err != nil {
		return err
	}

	a.search, err = search.NewRetriever(a.provider.Embedder(), a.vectors,
		search.WithTopK(a.config.Chat.TopK),
		search.WithMinScore(a.config.Chat.MinScore),
		search.WithMonitor(a.metrics),
	)
	if err != nil {
		return err
	}

	a.chat, err = chat.NewOrchestrator(a.repos.Sessions, a.repos.Messages, a.provider.Models(), a.search,
		chat.WithMemoryWindow(a.config.Chat.MemoryWindow),
		chat.WithSessionLocks(a.config.Chat.SessionLocks),
		chat.WithObserver(a.metrics),
	)
	if err != nil {
		return err
	}
	if a.sessions, err = chat.NewSessionService(a.repos.Sessions, a.repos.Messages, nil); err != nil {
		return err
	}
	a.uploader = ingestion.NewUploader(a.config.Ingestion.UploadDir)
	return nil
}

func newProvider(cfg *config.Config) (ai.Provider, error) {
	if cfg.AI.Provider != config.ProviderOllama {
		return openai.NewProvider(cfg.ModelConfig())
	}
	p, err := ollama.NewProvider(cfg.ModelConfig())
	if err != nil {
		return nil, err
	}
	return p, nil
}

// modelLister prefers the provider's own listing. OpenAI-compatible
// servers are assumed to be Ollama and are asked through its native API.
func modelLister(cfg *config.Config, p ai.Provider) (ai.ModelLister, error) {
	if l, ok := p.(ai.ModelLister); ok {
		return l, nil
	}
	if l, ok := p.Models().(ai.ModelLister); ok {
		return l, nil
	}
	if cfg.AI.Provider != config.ProviderOpenAI {
		return nil, nil
	}
	l, err := ollama.NewProvider(cfg.ModelConfig())
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (a *App) openVectorStore(ctx context.Context) (storage.VectorStore, error) {
	vs := a.config.VectorStore
	switch vs.Type {
	case config.StoreQdrant:
		return qdrant.Dial(ctx, vs.Qdrant.Address, vs.Dimension, qdrant.WithCollection(vs.Qdrant.Collection))
	case config.StorePGVector:
		return pgvector.Open(ctx, vs.PGVector.DSN, vs.Dimension, pgvector.WithTable(vs.PGVector.Table))
	default:
		return a.repos.Vectors, nil
	}
}

func (a *App) newPipeline(progress ingestion.Progress) (*ingestion.Pipeline, error) {
	in := a.config.Ingestion

	writerOpts := []ingestion.WriterOption{
		ingestion.WithBatchSize(in.BatchSize),
		ingestion.WithRetry(in.MaxAttempts, in.RetryDelay),
	}
	if progress != nil {
		writerOpts = append(writerOpts, ingestion.WithProgress(progress))
	}
	writer, err := ingestion.NewVectorWriter(a.provider.Embedder(), a.vectors, writerOpts...)
	if err != nil {
		return nil, err
	}

	chunker, err := ingestion.NewChunker(in.ChunkSize)
	if err != nil {
		return nil, err
	}

	var sources []ingestion.DocumentSource
	if in.Markdown != "" {
		sources = append(sources, ingestion.NewMarkdownSource(in.Markdown, nil))
	}
	if in.PDF != "" {
		sources = append(sources, ingestion.NewPDFSource(in.PDF, nil))
	}

	return ingestion.NewPipeline(sources, a.repos.Hashes, writer,
		ingestion.WithChunker(chunker),
		ingestion.WithNormalizer(ingestion.NewNormalizer(a.config.NormalizerConfig())),
		ingestion.WithObserver(a.metrics),
	)
}

// NewServer builds the HTTP surface over the App's services.
func (a *App) NewServer() (*server.Server, error) {
	return server.New(a.pipeline, a.uploader, a.chat, a.sessions, a.provider.Models(),
		server.WithModelLister(a.lister),
		server.WithMetrics(a.metrics),
		server.WithCORSOrigins(a.config.Server.CORSOrigins...),
	)
}

// ForgetDocuments drops every stored document hash so the next run
// reprocesses all documents.
func (a *App) ForgetDocuments(ctx context.Context) (int, error) {
	hashes, err := a.repos.Hashes.ListHashes(ctx)
	if err != nil {
		return 0, err
	}
	for _, h := range hashes {
		if err := a.repos.Hashes.DeleteHash(ctx, h.DocumentID); err != nil {
			return 0, err
		}
	}
	return len(hashes), nil
}

func (a *App) Pipeline() *ingestion.Pipeline { return a.pipeline }

func (a *App) Retriever() *search.Retriever { return a.search }

func (a *App) Orchestrator() *chat.Orchestrator { return a.chat }

func (a *App) Sessions() *chat.SessionService { return a.sessions }

func (a *App) Models() ai.ModelFactory { return a.provider.Models() }

// ModelLister returns nil when the provider cannot list installed models.
func (a *App) ModelLister() ai.ModelLister { return a.lister }

func (a *App) Metrics() *server.Metrics { return a.metrics }

func (a *App) Hashes() storage.HashRepository { return a.repos.Hashes }

func (a *App) sharesBackend(vs storage.VectorStore) bool {
	return a.repos != nil && vs == storage.VectorStore(a.repos.Vectors)
}

// Close releases resources in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	if a.pipeline != nil {
		if err := a.pipeline.ReleaseTimeout(shutdownTimeout); err != nil {
			a.logger.Error("ingestion run did not finish before close", "err", err)
			errs = append(errs, err)
		}
	}
	if c, ok := a.vectors.(io.Closer); ok && !a.sharesBackend(a.vectors) {
		if err := c.Close(); err != nil {
			a.logger.Error("error closing vector store", "err", err)
			errs = append(errs, err)
		}
	}
	if c, ok := a.lister.(io.Closer); ok && any(a.lister) != any(a.provider) {
		if err := c.Close(); err != nil {
			a.logger.Error("error closing model lister", "err", err)
			errs = append(errs, err)
		}
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing ai provider", "err", err)
			errs = append(errs, err)
		}
	}
	if a.repos != nil {
		if err := a.repos.Close(); err != nil {
			a.logger.Error("error closing storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
