package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/ragchat/ai"
)

// Provider implements ai.Provider, ai.ModelFactory and ai.ModelLister on a
// single Ollama server.
type Provider struct {
	config   *ai.Config
	client   *api.Client
	embedder *Embedder
	chat     *ChatModel
	logger   *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider) error

// WithHTTPClient replaces the HTTP client used to reach the server.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(p *Provider) error {
		u, err := url.Parse(ai.NativeHost(p.config.ChatHost))
		if err != nil {
			return err
		}
		p.client = api.NewClient(u, httpClient)
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) error {
		p.logger = logger.With("component", "ollama-provider")
		return nil
	}
}

// NewProvider connects to the Ollama server named by config.ChatHost.
// Embeddings use the same server; EmbeddingHost is ignored.
func NewProvider(config *ai.Config, opts ...Option) (*Provider, error) {
	if config == nil {
		return nil, ai.ErrConfigRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	u, err := url.Parse(ai.NativeHost(config.ChatHost))
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid host: %w", err)
	}

	p := &Provider{
		config: config,
		client: api.NewClient(u, http.DefaultClient),
		logger: slog.Default().With("component", "ollama-provider"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.embedder = &Embedder{
		client: p.client,
		model:  config.EmbeddingModel,
		logger: p.logger.With("role", "embedder"),
	}
	p.chat = p.newChatModel(config.ChatModel)
	return p, nil
}

func (p *Provider) newChatModel(name string) *ChatModel {
	return &ChatModel{
		client:      p.client,
		name:        name,
		temperature: p.config.Temperature,
		timeout:     p.config.Timeout,
		logger:      p.logger.With("model", name),
	}
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Models returns the provider itself as the chat model factory.
func (p *Provider) Models() ai.ModelFactory {
	return p
}

// DefaultName returns the configured default chat model.
func (p *Provider) DefaultName() string {
	return p.config.ChatModel
}

// Default returns the shared default chat model.
func (p *Provider) Default() ai.ChatModel {
	return p.chat
}

// ForName creates a chat model bound to name.
func (p *Provider) ForName(name string) (ai.ChatModel, error) {
	if name == "" {
		return nil, ai.ErrEmptyModelName
	}
	return p.newChatModel(name), nil
}

// ListModels returns the names of the models installed on the server.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Close is a no-op.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
