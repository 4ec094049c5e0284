// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ChatModel,
// ai.ModelFactory and ai.Provider for use in unit tests. The mocks allow
// tests to run without a model server and with deterministic behavior.
//
// # Usage in Tests
//
//	models := mock.NewMockModelFactory("qwen2.5:3b", "hello there")
//	models.DefaultModel.StreamFunc = func(ctx context.Context, msgs []core.ChatMessage, onToken func(string) error) (string, error) {
//	    return "", context.DeadlineExceeded
//	}
//
//	embedder := mock.NewMockEmbedder()
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockChatModel: Streams its Reply split after each space
//   - MockModelFactory: Hands out fresh MockChatModels and records them
//   - MockProvider: Aggregates a mock embedder and model factory
package mock
