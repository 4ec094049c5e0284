// Package ingestion turns source documents into embedded chunks.
//
// A run of the Pipeline reads every DocumentSource, normalizes each
// document, and drops those whose content hash matches the stored one.
// The remaining documents are split by the Chunker, embedded in batches
// by the VectorWriter and stored with a single upsert. Hashes are
// committed only after the upsert succeeds, so a failed run is retried
// in full next time.
//
// Runs never overlap. Trigger starts a run on a single background worker
// and returns a Future; a trigger that arrives while a run is active is
// skipped and its Future completes immediately.
//
// Uploader validates and saves user-provided markdown files into the
// watched directory.
package ingestion
