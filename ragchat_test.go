package ragchat

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/ragchat/ai/mock"
	"github.com/poiesic/ragchat/chat"
	"github.com/poiesic/ragchat/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)

	docs := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	cfg.Storage.Path = filepath.Join(t.TempDir(), "db")
	cfg.Ingestion.Markdown = filepath.Join(docs, "*.md")
	cfg.Ingestion.PDF = ""
	cfg.Ingestion.UploadDir = docs
	cfg.Ingestion.RetryDelay = 0
	return cfg
}

func openTestApp(t *testing.T, cfg *config.Config) (*App, *mock.MockModelFactory) {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}
	models := mock.NewMockModelFactory("qwen2.5:3b", "hello world")
	app, err := Open(context.Background(), cfg,
		WithProvider(mock.NewMockProviderWithServices(embedder, models)),
		WithInMemoryStorage(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app, models
}

func TestOpen(t *testing.T) {
	t.Run("on disk", func(t *testing.T) {
		cfg := testConfig(t)
		app, err := Open(context.Background(), cfg, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)

		assert.NotNil(t, app.Pipeline())
		assert.NotNil(t, app.Orchestrator())
		assert.NotNil(t, app.Sessions())
		assert.NotNil(t, app.Metrics())
		assert.DirExists(t, cfg.Storage.Path)
		assert.NoError(t, app.Close())
	})

	t.Run("storage path is a file", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, os.WriteFile(cfg.Storage.Path, []byte("x"), 0o644))

		app, err := Open(context.Background(), cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, app)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := Open(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestApp_IngestAndChat(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Ingestion.UploadDir, "guide.md"),
		[]byte("# Guide\n\nChunks are embedded and stored."), 0o644))
	app, models := openTestApp(t, cfg)
	ctx := context.Background()

	n, err := app.Pipeline().Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, app.Pipeline().Status().Changed)

	n, err = app.Pipeline().Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	forgotten, err := app.ForgetDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, forgotten)
	n, err = app.Pipeline().Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reply, err := app.Orchestrator().Chat(ctx, chat.ModeRAG, chat.Request{Query: "What happens to chunks?"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", reply)
	last := models.DefaultModel.LastCall()
	require.NotEmpty(t, last)
	assert.Contains(t, last[len(last)-1].Content, "Chunks are embedded and stored.")

	msgs, err := app.Sessions().Messages(ctx, "default")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestApp_NewServer(t *testing.T) {
	cfg := testConfig(t)
	app, _ := openTestApp(t, cfg)

	srv, err := app.NewServer()
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
	assert.NotNil(t, app.ModelLister(), "mock factory lists models")
}

func TestApp_CloseWaitsForTriggeredIngestion(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Ingestion.UploadDir, "guide.md"),
		[]byte("Chunks are embedded and stored."), 0o644))

	entered := make(chan struct{})
	release := make(chan struct{})
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		close(entered)
		<-release
		return [][]float32{{1, 0, 0}}, nil
	}
	app, err := Open(context.Background(), cfg,
		WithProvider(mock.NewMockProviderWithServices(embedder, mock.NewMockModelFactory("qwen2.5:3b", "hi"))),
		WithInMemoryStorage(),
	)
	require.NoError(t, err)

	fut := app.Pipeline().Trigger(context.Background())
	<-entered

	closed := make(chan error, 1)
	go func() { closed <- app.Close() }()
	assert.Never(t, func() bool { return len(closed) > 0 }, 100*time.Millisecond, 10*time.Millisecond)

	close(release)
	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return after the run finished")
	}

	res, err := fut.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Chunks)
}
