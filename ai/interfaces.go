package ai

import (
	"context"

	"github.com/poiesic/ragchat/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces assistant replies for a conversation.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Name returns the model identifier used on the wire.
	Name() string

	// Generate returns the complete reply to messages.
	Generate(ctx context.Context, messages []core.ChatMessage) (string, error)

	// Stream delivers the reply token by token to onToken and returns the
	// full text once the model is done. An error returned by onToken aborts
	// the stream and is returned as is.
	Stream(ctx context.Context, messages []core.ChatMessage, onToken func(token string) error) (string, error)

	// Close releases resources held by the model.
	Close() error
}

// ModelFactory hands out chat models.
type ModelFactory interface {
	// DefaultName returns the name of the shared default model.
	DefaultName() string

	// Default returns the shared default model. Callers must not close it.
	Default() ChatModel

	// ForName creates a fresh model bound to name. The caller owns the
	// returned model and closes it when done.
	ForName(name string) (ChatModel, error)
}

// ModelLister enumerates the models installed on a model server.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Models returns the chat model factory.
	Models() ModelFactory

	// Close releases resources held by the provider and its services.
	Close() error
}
