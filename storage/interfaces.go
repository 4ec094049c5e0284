package storage

import (
	"context"

	"github.com/poiesic/ragchat/core"
)

// HashRepository persists the content hash of every processed document.
// There is at most one hash per document id.
type HashRepository interface {
	// GetHash returns the stored hash for a document.
	// Returns ErrNotFound if the document has never been processed.
	GetHash(ctx context.Context, docID string) (*core.DocumentHash, error)

	// PutHash inserts or overwrites the hash for a document.
	PutHash(ctx context.Context, docID, hash string) error

	// PutHashes upserts several document hashes, one row per document,
	// committed together.
	PutHashes(ctx context.Context, hashes map[string]string) error

	// ListHashes returns every stored hash ordered by document id.
	ListHashes(ctx context.Context) ([]*core.DocumentHash, error)

	// DeleteHash removes the hash of a document so it is processed again.
	// Deleting a missing hash is not an error.
	DeleteHash(ctx context.Context, docID string) error
}

// SessionRepository provides CRUD operations for chat session metadata.
type SessionRepository interface {
	// CreateSession creates a new session with a fresh UUID and the default title.
	CreateSession(ctx context.Context) (*core.ChatSession, error)

	// ListSessions returns all sessions ordered by UpdatedAt, most recent first.
	ListSessions(ctx context.Context) ([]*core.ChatSession, error)

	// GetSession retrieves a session by id.
	// Returns ErrNotFound if the session doesn't exist.
	GetSession(ctx context.Context, sessionID string) (*core.ChatSession, error)

	// UpdateTitle sets the title of a session and bumps UpdatedAt.
	// Returns ErrNotFound if the session doesn't exist.
	UpdateTitle(ctx context.Context, sessionID, title string) error

	// Touch bumps UpdatedAt without changing anything else.
	// Returns ErrNotFound if the session doesn't exist.
	Touch(ctx context.Context, sessionID string) error

	// SessionExists reports whether a session with the given id exists.
	SessionExists(ctx context.Context, sessionID string) (bool, error)

	// DeleteSession removes the session and all of its messages as one unit.
	// Returns ErrNotFound if the session doesn't exist.
	DeleteSession(ctx context.Context, sessionID string) error
}

// MessageRepository stores the ordered message history of sessions.
type MessageRepository interface {
	// GetMessages returns the USER and ASSISTANT messages of a session
	// ordered by CreatedAt ascending.
	GetMessages(ctx context.Context, sessionID string) ([]*core.ChatMessage, error)

	// LoadAll returns every message of a session, SYSTEM messages included,
	// ordered by CreatedAt ascending.
	LoadAll(ctx context.Context, sessionID string) ([]*core.ChatMessage, error)

	// ReplaceAll deletes all messages of a session and inserts the given set
	// as a single atomic unit. The last full write wins.
	ReplaceAll(ctx context.Context, sessionID string, messages []*core.ChatMessage) error
}

// VectorStore stores embedded chunks and answers similarity queries.
// Implementations must be thread-safe and support concurrent access.
type VectorStore interface {
	// UpsertAll inserts or replaces embedded chunks keyed by chunk id.
	// Every chunk must carry a Vector.
	UpsertAll(ctx context.Context, chunks []*core.Chunk) error

	// Search returns up to topK chunks whose cosine similarity to vector
	// is at least minScore, ordered by similarity (highest first).
	Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]*core.ScoredChunk, error)

	// DeleteDocumentChunks removes the chunks of documentID whose index is
	// fromIndex or greater. Missing chunks are not an error.
	DeleteDocumentChunks(ctx context.Context, documentID string, fromIndex int) error

	// Close releases resources held by the store.
	Close() error
}
