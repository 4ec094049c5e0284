package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/ragchat/ai/mock"
	"github.com/poiesic/ragchat/chat"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/poiesic/ragchat/search"
	"github.com/poiesic/ragchat/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSource blocks reads until its gate is opened.
type gatedSource struct {
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (s *gatedSource) Name() string { return "gated" }

func (s *gatedSource) Read(ctx context.Context) ([]core.Document, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.gate
	return []core.Document{{ID: "doc-a.md", Text: "alpha"}}, nil
}

type testServer struct {
	server    *Server
	handler   http.Handler
	repos     *badger.Repositories
	models    *mock.MockModelFactory
	pipeline  *ingestion.Pipeline
	source    *gatedSource
	uploadDir string
	metrics   *Metrics
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	metrics := NewMetrics()
	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 8

	writer, err := ingestion.NewVectorWriter(embedder, repos.Vectors)
	require.NoError(t, err)
	src := &gatedSource{gate: make(chan struct{}), entered: make(chan struct{})}
	pipeline, err := ingestion.NewPipeline([]ingestion.DocumentSource{src}, repos.Hashes, writer, ingestion.WithObserver(metrics))
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	retriever, err := search.NewRetriever(embedder, repos.Vectors, search.WithMonitor(metrics))
	require.NoError(t, err)
	models := mock.NewMockModelFactory("qwen2.5:3b", "hello world")
	orch, err := chat.NewOrchestrator(repos.Sessions, repos.Messages, models, retriever, chat.WithObserver(metrics))
	require.NoError(t, err)
	sessions, err := chat.NewSessionService(repos.Sessions, repos.Messages, nil)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "docs")
	srv, err := New(pipeline, ingestion.NewUploader(dir), orch, sessions, models,
		WithMetrics(metrics), WithModelLister(models))
	require.NoError(t, err)

	return &testServer{
		server:    srv,
		handler:   srv.Handler(),
		repos:     repos,
		models:    models,
		pipeline:  pipeline,
		source:    src,
		uploadDir: dir,
		metrics:   metrics,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrIndexerRequired)
}

func TestStatusAndReindex(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodGet, "/api/documents/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.ProcessingState{}, decode[core.ProcessingState](t, rec))

	rec = ts.do(t, http.MethodPost, "/api/documents/reindex", nil, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, decode[reindexResponse](t, rec).Accepted)
	<-ts.source.entered

	rec = ts.do(t, http.MethodGet, "/api/documents/status", nil, "")
	assert.True(t, decode[core.ProcessingState](t, rec).Running)

	rec = ts.do(t, http.MethodPost, "/api/documents/reindex", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	skipped := decode[reindexResponse](t, rec)
	assert.False(t, skipped.Accepted)
	assert.Contains(t, skipped.Message, "already running")

	close(ts.source.gate)
	assert.Eventually(t, func() bool { return !ts.pipeline.Status().Running }, testTimeout, tick)
	assert.Equal(t, 1, ts.pipeline.Status().Processed)
}

func multipartBody(t *testing.T, files map[string][]byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	ts := setupServer(t)

	body, ct := multipartBody(t, map[string][]byte{"a.md": []byte("# A"), "b.md": []byte("# B")})
	rec := ts.do(t, http.MethodPost, "/api/documents/upload", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[uploadResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Uploaded)
	saved, err := os.ReadFile(filepath.Join(ts.uploadDir, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "# A", string(saved))

	tests := []struct {
		name  string
		files map[string][]byte
		want  string
	}{
		{"wrong extension", map[string][]byte{"notes.txt": []byte("x")}, "markdown"},
		{"too many", map[string][]byte{"1.md": nil, "2.md": nil, "3.md": nil, "4.md": nil, "5.md": nil, "6.md": nil}, "at most 5"},
		{"none", map[string][]byte{}, "no files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.files)
			rec := ts.do(t, http.MethodPost, "/api/documents/upload", body, ct)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			res := decode[uploadResponse](t, rec)
			assert.False(t, res.Success)
			assert.Contains(t, res.Message, tt.want)
		})
	}
}

func TestSessionRoutes(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodPost, "/api/chat/sessions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[sessionResponse](t, rec)
	assert.Equal(t, core.DefaultSessionTitle, created.Title)
	id := created.SessionID

	rec = ts.do(t, http.MethodPut, "/api/chat/sessions/"+id+"/title", []byte(`{"title":"Renamed"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/chat/sessions/"+id+"/title", []byte(`{"title":"  "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/chat/sessions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]sessionResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Title)

	rec = ts.do(t, http.MethodGet, "/api/chat/sessions/"+id+"/messages", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]messageResponse](t, rec))

	rec = ts.do(t, http.MethodDelete, "/api/chat/sessions/"+id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/chat/sessions/" + id + "/messages"},
		{http.MethodDelete, "/api/chat/sessions/" + id},
		{http.MethodPut, "/api/chat/sessions/" + id + "/title"},
	} {
		rec = ts.do(t, r.method, r.path, []byte(`{"title":"x"}`), "application/json")
		assert.Equal(t, http.StatusNotFound, rec.Code, r.path)
	}
}

func TestStreamRoutes(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodPost, "/api/chat/sessions", nil, "")
	id := decode[sessionResponse](t, rec).SessionID

	rec = ts.do(t, http.MethodGet, "/ai/rag/stream?message=Explain+chunking&sessionId="+id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream"))
	assert.Equal(t, "data: {\"token\":\"hello \"}\n\ndata: {\"token\":\"world\"}\n\n", rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/chat/sessions/"+id+"/messages", nil, "")
	msgs := decode[[]messageResponse](t, rec)
	require.Len(t, msgs, 2)
	assert.Equal(t, "USER", msgs[0].Role)
	assert.Equal(t, "Explain chunking", msgs[0].Content)
	assert.Equal(t, "ASSISTANT", msgs[1].Role)

	rec = ts.do(t, http.MethodGet, "/api/chat/sessions", nil, "")
	assert.Equal(t, "Explain chunking", decode[[]sessionResponse](t, rec)[0].Title)

	rec = ts.do(t, http.MethodGet, "/ai/simple/stream?sessionId=unknown", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"world"`)
	rec = ts.do(t, http.MethodGet, "/api/chat/sessions/default/messages", nil, "")
	msgs = decode[[]messageResponse](t, rec)
	require.Len(t, msgs, 2)
	assert.Equal(t, defaultQuery, msgs[0].Content)
}

func TestStreamRoutes_ErrorEvent(t *testing.T) {
	ts := setupServer(t)
	ts.models.DefaultModel.StreamFunc = func(ctx context.Context, messages []core.ChatMessage, onToken func(string) error) (string, error) {
		return "", errors.New("model exploded")
	}

	rec := ts.do(t, http.MethodGet, "/ai/simple/stream?message=hi", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "event: error\ndata: {\"error\":\"model exploded\"}\n\n", rec.Body.String())
}

func TestStreamRoutes_ApologyOnTimeout(t *testing.T) {
	ts := setupServer(t)
	ts.models.DefaultModel.StreamFunc = func(ctx context.Context, messages []core.ChatMessage, onToken func(string) error) (string, error) {
		return "", context.DeadlineExceeded
	}

	rec := ts.do(t, http.MethodGet, "/ai/rag/stream?message=hi", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data, err := json.Marshal(tokenEvent{Token: chat.ApologyMessage})
	require.NoError(t, err)
	assert.Equal(t, "data: "+string(data)+"\n\n", rec.Body.String())
}

func TestModels(t *testing.T) {
	ts := setupServer(t)
	ts.models.Installed = []string{"qwen2.5:3b", "llama3.2:latest"}

	rec := ts.do(t, http.MethodGet, "/api/models", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[modelsResponse](t, rec)
	assert.True(t, res.Available)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "qwen2.5:3b", res.DefaultModel)

	ts.models.ListErr = errors.New("connection refused")
	rec = ts.do(t, http.MethodGet, "/api/ollama/models", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[modelsResponse](t, rec)
	assert.False(t, res.Available)
	assert.Empty(t, res.Models)
	assert.Contains(t, res.Message, "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodGet, "/ai/simple/stream?message=hi", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `ragchat_chat_requests_total{mode="plain",outcome="complete"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
