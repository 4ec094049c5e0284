package ingestion

import "errors"

var (
	// ErrHashRepositoryRequired is returned when a hash repository is not provided.
	ErrHashRepositoryRequired = errors.New("hash repository required")

	// ErrVectorWriterRequired is returned when a vector writer is not provided.
	ErrVectorWriterRequired = errors.New("vector writer required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrSourceRequired is returned when a pipeline is built without sources.
	ErrSourceRequired = errors.New("at least one document source required")

	// ErrInvalidChunkSize is returned for a chunk size below one token.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrTransform marks a normalization or chunking failure. The run is aborted.
	ErrTransform = errors.New("transform failed")

	// ErrWrite marks an embedding or vector store failure. The run is aborted.
	ErrWrite = errors.New("vector write failed")

	// ErrEmbeddingMismatch is returned when the embedder returns a different
	// number of vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("embedding result count mismatch")
)

// Upload validation errors. Each rejects the whole batch.
var (
	ErrNoFiles          = errors.New("no files to upload")
	ErrTooManyFiles     = errors.New("at most 5 files can be uploaded at once")
	ErrInvalidExtension = errors.New("only markdown (.md) files can be uploaded")
	ErrFileTooLarge     = errors.New("each file must be at most 5MB")
	ErrBatchTooLarge    = errors.New("total upload size must be at most 20MB")
)
