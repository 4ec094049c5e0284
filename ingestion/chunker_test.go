package ingestion

import (
	"math"
	"strings"
	"testing"

	"github.com/poiesic/ragchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordsText(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("word ")
	}
	return strings.TrimSpace(sb.String())
}

func reconstruct(chunks []*core.Chunk, text string) string {
	runes := []rune(text)
	var sb strings.Builder
	prevEnd := 0
	for _, c := range chunks {
		from := max(c.Start, prevEnd)
		sb.WriteString(string(runes[from:c.End]))
		prevEnd = c.End
	}
	return sb.String()
}

func TestNewChunker(t *testing.T) {
	_, err := NewChunker(0)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	c, err := NewChunker(1000)
	require.NoError(t, err)
	assert.Equal(t, 100, c.Overlap())

	c, err = NewChunker(200)
	require.NoError(t, err)
	assert.Equal(t, 50, c.Overlap())
}

func TestChunker_ShortDocumentIsOneChunk(t *testing.T) {
	c, err := NewChunker(200)
	require.NoError(t, err)

	doc := core.Document{ID: "doc-a.md", Text: "짧은 문서입니다.", Metadata: map[string]string{"source": "a.md"}}
	chunks := c.Split(doc)
	require.Len(t, chunks, 1)

	assert.Equal(t, "doc-a.md#0", chunks[0].ID)
	assert.Equal(t, doc.Text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len([]rune(doc.Text)), chunks[0].End)
	assert.Equal(t, "a.md", chunks[0].Metadata["source"])
	assert.Equal(t, "0", chunks[0].Metadata["chunk_index"])
	assert.Equal(t, "doc-a.md", chunks[0].Metadata["document_id"])
}

func TestChunker_EmptyDocument(t *testing.T) {
	c, err := NewChunker(200)
	require.NoError(t, err)
	assert.Empty(t, c.Split(core.Document{ID: "x"}))
}

func TestChunker_Properties(t *testing.T) {
	const chunkSize = 200
	c, err := NewChunker(chunkSize)
	require.NoError(t, err)

	text := wordsText(2400)
	doc := core.Document{ID: "doc-long.md", Text: text, Metadata: map[string]string{"type": "markdown"}}
	chunks := c.Split(doc)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.LessOrEqual(t, EstimateTokens(ch.Text), chunkSize, "chunk %d too large", i)
		assert.Equal(t, string([]rune(text)[ch.Start:ch.End]), ch.Text)
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "markdown", ch.Metadata["type"])
		if i > 0 {
			overlapTokens := float64(chunks[i-1].End-ch.Start) / runesPerToken
			assert.InDelta(t, float64(c.Overlap()), overlapTokens, 3, "overlap between %d and %d", i-1, i)
		}
	}

	assert.Equal(t, text, reconstruct(chunks, text))

	tokens := float64(EstimateTokens(text))
	expected := math.Ceil(tokens / float64(chunkSize-c.Overlap()))
	assert.InDelta(t, expected, float64(len(chunks)), 2)
}

func TestChunker_PrefersParagraphBreaks(t *testing.T) {
	c, err := NewChunker(60) // 240 runes, overlap clamped below half
	require.NoError(t, err)

	para := strings.Repeat("가나다라 ", 30) // 150 runes
	text := strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)
	chunks := c.Split(core.Document{ID: "doc-p.md", Text: text})
	require.Greater(t, len(chunks), 1)

	assert.True(t, strings.HasSuffix(chunks[0].Text, "\n\n"), "first chunk should end at a paragraph break")
	assert.Equal(t, text, reconstruct(chunks, text))
}

func TestChunker_HardCutWithoutSeparators(t *testing.T) {
	c, err := NewChunker(100)
	require.NoError(t, err)

	text := strings.Repeat("a", 1000)
	chunks := c.Split(core.Document{ID: "doc-a.md", Text: text})
	require.Greater(t, len(chunks), 2)

	for _, ch := range chunks {
		assert.LessOrEqual(t, EstimateTokens(ch.Text), 100)
	}
	assert.Equal(t, text, reconstruct(chunks, text))
}

func TestChunker_TinyChunkSizeTerminates(t *testing.T) {
	c, err := NewChunker(1)
	require.NoError(t, err)

	text := "hello world, this is tiny"
	chunks := c.Split(core.Document{ID: "t", Text: text})
	for _, ch := range chunks {
		assert.LessOrEqual(t, EstimateTokens(ch.Text), 1)
	}
	assert.Equal(t, text, reconstruct(chunks, text))
}

func TestChunker_SplitAll(t *testing.T) {
	c, err := NewChunker(200)
	require.NoError(t, err)

	chunks := c.SplitAll([]core.Document{
		{ID: "doc-a.md", Text: "alpha"},
		{ID: "doc-b.md", Text: "beta"},
	})
	require.Len(t, chunks, 2)
	assert.Equal(t, "doc-a.md#0", chunks[0].ID)
	assert.Equal(t, "doc-b.md#0", chunks[1].ID)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 1, EstimateTokens("한국어"))
}
