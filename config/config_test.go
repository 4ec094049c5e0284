package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ragchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, StoreBadger, cfg.VectorStore.Type)
	assert.Equal(t, 500, cfg.Ingestion.ChunkSize)
	assert.Equal(t, 20, cfg.Chat.MemoryWindow)
	assert.Equal(t, 3, cfg.Chat.TopK)
	assert.InDelta(t, 0.20, cfg.Chat.MinScore, 1e-6)
	assert.True(t, cfg.Chat.SessionLocks)
	assert.True(t, cfg.NormalizerConfig().StripTags)
	assert.False(t, cfg.NormalizerConfig().CollapseNewlines)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
ai:
  provider: ollama
  host: http://gpu-box:11434
  chat_model: llama3.2
  timeout: 90s
vector_store:
  type: qdrant
  dimension: 1024
  qdrant:
    collection: docs
chat:
  top_k: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.AI.Provider)
	assert.Equal(t, 90*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 1024, cfg.VectorStore.Dimension)
	assert.Equal(t, "docs", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, "localhost:6334", cfg.VectorStore.Qdrant.Address)
	assert.Equal(t, 5, cfg.Chat.TopK)

	model := cfg.ModelConfig()
	require.NoError(t, model.Validate())
	assert.Equal(t, "http://gpu-box:11434/v1", model.ChatHost)
	assert.Equal(t, "http://gpu-box:11434/v1", model.EmbeddingHost)
	assert.Equal(t, "llama3.2", model.ChatModel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "ai:\n  chat_model: llama3.2\n")
	t.Setenv("RAGCHAT_AI_CHAT_MODEL", "gemma3")
	t.Setenv("RAGCHAT_AI_EMBEDDING_HOST", "http://embed:11434")
	t.Setenv("RAGCHAT_CHAT_MEMORY_WINDOW", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemma3", cfg.AI.ChatModel)
	assert.Equal(t, 8, cfg.Chat.MemoryWindow)
	model := cfg.ModelConfig()
	assert.Equal(t, "http://embed:11434", model.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434", model.ChatHost)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RAGCHAT_SERVER_ADDRESS=:9090\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RAGCHAT_SERVER_ADDRESS") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown provider", "ai:\n  provider: bedrock\n", ErrUnknownProvider},
		{"unknown store", "vector_store:\n  type: faiss\n", ErrUnknownVectorStore},
		{"zero dimension", "vector_store:\n  type: qdrant\n  dimension: 0\n", ErrInvalidDimension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := Load(writeConfig(t, "vector_store:\n  type: pgvector\n"))
	assert.ErrorContains(t, err, "dsn")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
