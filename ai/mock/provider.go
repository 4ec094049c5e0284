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


package mock

import "github.com/poiesic/ragchat/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates a mock embedder and a mock model factory.
type MockProvider struct {
	embedder *MockEmbedder
	models   *MockModelFactory
}

// NewMockProvider creates a new mock provider with default mock services.
// The default chat model is "mock" and answers "ok".
//
// Returns ai.Provider for consistency with production constructors.
// Use GetMockEmbedder()/GetMockModels() to access concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		models:   NewMockModelFactory("mock", "ok"),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
func NewMockProviderWithServices(embedder *MockEmbedder, models *MockModelFactory) ai.Provider {
	return &MockProvider{
		embedder: embedder,
		models:   models,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Models returns the mock model factory.
func (p *MockProvider) Models() ai.ModelFactory {
	return p.models
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockModels returns the underlying mock model factory for test assertions.
func (p *MockProvider) GetMockModels() *MockModelFactory {
	return p.models
}
