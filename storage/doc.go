// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for ragchat.
//
// This package defines repository interfaces that decouple storage implementation
// from the ingestion pipeline and the chat orchestrator. Backends live in
// subpackages:
//
//   - badger: embedded BadgerDB repositories and a brute-force vector store
//   - qdrant: vector store backed by a Qdrant server over gRPC
//   - pgvector: vector store backed by PostgreSQL with the pgvector extension
//
// # Architecture
//
//   - HashRepository: document id to content hash, used for change detection
//   - SessionRepository: chat session metadata
//   - MessageRepository: ordered per-session message history
//   - VectorStore: embedded chunk storage and similarity search
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
