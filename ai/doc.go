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


// Package ai provides abstractions for the AI services used by ragchat.
//
// This package defines interfaces for text embeddings and chat completion.
// The ingestion pipeline depends on Embedder, the chat orchestrator on
// ModelFactory and ChatModel, and neither knows which server answers.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - ChatModel: Generates or streams a reply to a conversation
//   - ModelFactory: Hands out the shared default model or a fresh one per name
//   - ModelLister: Enumerates installed models
//   - Provider: Aggregates the above for initialization and shutdown
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/ollama: the native Ollama API
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors return interface types. Mock constructors return
// concrete types so tests can inject behavior and inspect calls.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithChatModel("llama3.2"))
//	provider, err := ollama.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	reply, err := provider.Models().Default().Generate(ctx, messages)
//
// IsTransient classifies timeout and connection failures so callers can
// degrade gracefully instead of surfacing raw transport errors.
package ai
