package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorStore_SearchEmpty(t *testing.T) {
	repos := setupRepositories(t)

	results, err := repos.Vectors.Search(context.Background(), []float32{1, 0, 0}, 3, 0.2)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorStore_SearchRanksAndFilters(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		{ID: "d#0", DocumentID: "d", Text: "exact", Vector: []float32{1, 0, 0}},
		{ID: "d#1", DocumentID: "d", Text: "close", Vector: []float32{0.9, 0.1, 0}},
		{ID: "d#2", DocumentID: "d", Text: "orthogonal", Vector: []float32{0, 1, 0}},
		{ID: "d#3", DocumentID: "d", Text: "opposite", Vector: []float32{-1, 0, 0}},
		{ID: "d#4", DocumentID: "d", Text: "somewhat", Vector: []float32{0.5, 0.5, 0.5}},
	}
	require.NoError(t, repos.Vectors.UpsertAll(ctx, chunks))

	results, err := repos.Vectors.Search(ctx, []float32{2, 0, 0}, 3, 0.2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "exact", results[0].Chunk.Text)
	assert.Equal(t, "close", results[1].Chunk.Text)
	assert.Equal(t, "somewhat", results[2].Chunk.Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	results, err = repos.Vectors.Search(ctx, []float32{1, 0, 0}, 10, 0.95)
	require.NoError(t, err)
	assert.Len(t, results, 2, "minScore filters weak matches")
}

func TestVectorStore_UpsertReplacesByID(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Vectors.UpsertAll(ctx, []*core.Chunk{
		{ID: "d#0", Text: "v1", Vector: []float32{1, 0}},
	}))
	require.NoError(t, repos.Vectors.UpsertAll(ctx, []*core.Chunk{
		{ID: "d#0", Text: "v2", Vector: []float32{1, 0}},
	}))

	results, err := repos.Vectors.Search(ctx, []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "v2", results[0].Chunk.Text)
}

func TestVectorStore_DeleteDocumentChunks(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	var chunks []*core.Chunk
	for i := range 12 {
		chunks = append(chunks, &core.Chunk{ID: fmt.Sprintf("a#%d", i), DocumentID: "a", Index: i, Text: "a", Vector: vec})
	}
	chunks = append(chunks,
		&core.Chunk{ID: "a#1#0", DocumentID: "a#1", Text: "nested", Vector: vec},
		&core.Chunk{ID: "ab#5", DocumentID: "ab", Index: 5, Text: "ab", Vector: vec},
	)
	require.NoError(t, repos.Vectors.UpsertAll(ctx, chunks))

	require.NoError(t, repos.Vectors.DeleteDocumentChunks(ctx, "a", 2))

	results, err := repos.Vectors.Search(ctx, vec, 100, 0)
	require.NoError(t, err)
	var ids []string
	for _, r := range results {
		ids = append(ids, r.Chunk.ID)
	}
	assert.ElementsMatch(t, []string{"a#0", "a#1", "a#1#0", "ab#5"}, ids)

	require.NoError(t, repos.Vectors.DeleteDocumentChunks(ctx, "missing", 0))
}

func TestVectorStore_ManyChunksAcrossTransactions(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	chunks := make([]*core.Chunk, maxChunksPerTxn*2+5)
	for i := range chunks {
		chunks[i] = &core.Chunk{ID: fmt.Sprintf("d#%d", i), Vector: []float32{1, float32(i)}}
	}
	require.NoError(t, repos.Vectors.UpsertAll(ctx, chunks))

	results, err := repos.Vectors.Search(ctx, []float32{1, 0}, len(chunks), -1)
	require.NoError(t, err)
	assert.Len(t, results, len(chunks))
}

func TestVectorStore_Rejections(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	err := repos.Vectors.UpsertAll(ctx, []*core.Chunk{{ID: "d#0"}})
	assert.ErrorIs(t, err, storage.ErrMissingVector)

	_, err = repos.Vectors.Search(ctx, nil, 3, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = repos.Vectors.Search(ctx, []float32{1}, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
