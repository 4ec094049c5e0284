// Package qdrant implements storage.VectorStore on a Qdrant server.
//
// The store talks to Qdrant through the generated gRPC clients. Each chunk
// becomes one point whose numeric id is derived from the chunk id, with the
// chunk text, offsets and metadata carried in the payload.
package qdrant
