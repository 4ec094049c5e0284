package server

import "errors"

var (
	// ErrIndexerRequired is returned when no ingestion pipeline is provided.
	ErrIndexerRequired = errors.New("indexer required")

	// ErrUploaderRequired is returned when no uploader is provided.
	ErrUploaderRequired = errors.New("uploader required")

	// ErrChatRequired is returned when no chat orchestrator is provided.
	ErrChatRequired = errors.New("chat orchestrator required")

	// ErrSessionsRequired is returned when no session service is provided.
	ErrSessionsRequired = errors.New("session service required")

	// ErrModelsRequired is returned when no model factory is provided.
	ErrModelsRequired = errors.New("model factory required")
)
