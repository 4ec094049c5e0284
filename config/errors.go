package config

import "errors"

var (
	// ErrUnknownProvider is returned when ai.provider is neither openai nor ollama.
	ErrUnknownProvider = errors.New("unknown ai provider")

	// ErrUnknownVectorStore is returned when vector_store.type is not a supported backend.
	ErrUnknownVectorStore = errors.New("unknown vector store")

	// ErrInvalidDimension is returned when an external vector store has no positive dimension.
	ErrInvalidDimension = errors.New("vector dimension must be positive")
)
