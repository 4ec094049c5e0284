package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a numeric identifier for stored entities.
// It is generated from database sequences or content hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentHash returns the hex encoded BLAKE2b-256 digest of text.
// It is used for change detection of ingested documents.
func ContentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Role identifies the author of a chat message.
type Role int

const (
	// RoleUser is a message written by the person chatting.
	RoleUser Role = iota + 1
	// RoleAssistant is a message generated by the model.
	RoleAssistant
	// RoleSystem is an instruction message. Never surfaced in session history.
	RoleSystem
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleAssistant:
		return "ASSISTANT"
	case RoleSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Visible reports whether messages with this role are part of the
// user-facing conversation history.
func (r Role) Visible() bool {
	return r == RoleUser || r == RoleAssistant
}

// Document is a raw source document read from disk.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Chunk is a bounded fragment of a normalized Document.
// Start and End are rune offsets into the parent text.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Text       string
	Start      int
	End        int
	Metadata   map[string]string
	Vector     []float32 // Embedding vector (populated by the vector writer)
}

// DocumentHash records the content hash of the last successfully
// processed version of a document.
type DocumentHash struct {
	DocumentID string
	Hash       string
	UpdatedAt  time.Time
}

// ChatSession holds the metadata of a conversation.
type ChatSession struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage is a single persisted message of a conversation.
type ChatMessage struct {
	ID        ID
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// ProcessingState is a point-in-time view of the ingestion progress.
type ProcessingState struct {
	Running   bool `json:"running"`
	Processed int  `json:"processed"`
	Total     int  `json:"total"`
	Changed   int  `json:"changed"`
}

// ScoredChunk is a chunk returned from a similarity search.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}
