// Package pgvector implements storage.VectorStore on PostgreSQL with the
// pgvector extension.
//
// Chunks are stored one row per chunk id with their metadata as JSONB and
// the embedding in a vector column. Similarity is 1 minus the cosine
// distance operator (<=>).
package pgvector
