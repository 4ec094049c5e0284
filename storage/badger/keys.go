package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/ragchat/core"
)

// Key prefixes for different data types
const (
	docHashPrefix      = "dochash:"
	sessionPrefix      = "sess:"
	sessionIndexPrefix = "sessu:"
	messagePrefix      = "msg:"
	messageIDSeq       = "msgseq"
	chunkPrefix        = "chunk:"
)

// makeDocHashKey generates a key for a document hash by document id.
func makeDocHashKey(docID string) []byte {
	return []byte(docHashPrefix + docID)
}

// makeSessionKey generates a key for a session by id.
func makeSessionKey(sessionID string) []byte {
	return []byte(sessionPrefix + sessionID)
}

// makeSessionIndexKey generates a composite key for the updatedAt index.
// Format: prefix:timestamp:sessionID
func makeSessionIndexKey(updatedAt time.Time, sessionID string) []byte {
	buf := make([]byte, len(sessionIndexPrefix)+8+len(sessionID))
	offset := copy(buf, sessionIndexPrefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(updatedAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], sessionID)
	return buf
}

// makeMessagePrefix generates the prefix shared by all messages of a session.
// Format: prefix:sessionID:
func makeMessagePrefix(sessionID string) []byte {
	return []byte(messagePrefix + sessionID + ":")
}

// makeMessageKey generates a composite key ordering messages within a session.
// Format: prefix:sessionID:timestamp:id
func makeMessageKey(sessionID string, createdAt time.Time, id core.ID) []byte {
	prefix := makeMessagePrefix(sessionID)
	buf := make([]byte, len(prefix)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkKey generates a key for an embedded chunk by chunk id.
func makeChunkKey(chunkID string) []byte {
	return []byte(chunkPrefix + chunkID)
}

// makeDocumentChunkPrefix generates the key prefix shared by every chunk
// of a document. Chunk ids are "<documentID>#<index>".
func makeDocumentChunkPrefix(documentID string) []byte {
	return []byte(chunkPrefix + documentID + "#")
}
