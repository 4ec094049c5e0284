package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := ai.NewConfig(
		ai.WithHost(srv.URL),
		ai.WithChatModel("qwen2.5:3b"),
		ai.WithEmbeddingModel("embeddinggemma"),
		ai.WithTimeout(5*time.Second),
	)
	p, err := NewProvider(cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return p
}

func TestChatModel_Stream(t *testing.T) {
	var got api.ChatRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, tok := range []string{"안녕", "하세요", ""} {
			resp := api.ChatResponse{Model: got.Model, Message: api.Message{Role: "assistant", Content: tok}, Done: tok == ""}
			b, _ := json.Marshal(resp)
			fmt.Fprintf(w, "%s\n", b)
		}
	})
	p := newTestProvider(t, mux)

	var tokens []string
	reply, err := p.Models().Default().Stream(context.Background(), []core.ChatMessage{
		{Role: core.RoleSystem, Content: "be kind"},
		{Role: core.RoleUser, Content: "hi"},
	}, func(tok string) error {
		tokens = append(tokens, tok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", reply)
	assert.Equal(t, []string{"안녕", "하세요"}, tokens)

	assert.Equal(t, "qwen2.5:3b", got.Model)
	require.NotNil(t, got.Stream)
	assert.True(t, *got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.InDelta(t, 0.7, got.Options["temperature"], 1e-9)
}

func TestChatModel_ForNameUsesRequestedModel(t *testing.T) {
	var model string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		model = req.Model
		b, _ := json.Marshal(api.ChatResponse{Message: api.Message{Role: "assistant", Content: "ok"}, Done: true})
		fmt.Fprintf(w, "%s\n", b)
	})
	p := newTestProvider(t, mux)

	m, err := p.ForName("llama3.2")
	require.NoError(t, err)
	defer m.Close()

	reply, err := m.Generate(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, "llama3.2", model)

	_, err = p.ForName("")
	assert.ErrorIs(t, err, ai.ErrEmptyModelName)
}

func TestChatModel_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model \"nope\" not found"}`)
	})
	p := newTestProvider(t, mux)

	_, err := p.Default().Generate(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.False(t, ai.IsTransient(err))
}

func TestEmbedder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req api.EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "embeddinggemma", req.Model)
		json.NewEncoder(w).Encode(api.EmbeddingResponse{Embedding: []float64{float64(len(req.Prompt)), 0.5}})
	})
	p := newTestProvider(t, mux)

	vecs, err := p.Embedder().EmbedTexts(context.Background(), []string{"a", "abc"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0.5}, vecs[0])
	assert.Equal(t, []float32{3, 0.5}, vecs[1])
}

func TestListModels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.ListResponse{Models: []api.ListModelResponse{
			{Name: "qwen2.5:3b"}, {Name: "llama3.2:latest"},
		}})
	})
	p := newTestProvider(t, mux)

	names, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"qwen2.5:3b", "llama3.2:latest"}, names)
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(nil)
	assert.ErrorIs(t, err, ai.ErrConfigRequired)

	_, err = NewProvider(&ai.Config{})
	assert.Error(t, err)
}
