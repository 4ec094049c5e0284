package ingestion

import (
	"strconv"
	"unicode"

	"github.com/poiesic/ragchat/core"
)

// runesPerToken is the token estimate used for chunk budgeting.
const runesPerToken = 4

var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune(" "),
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	n := len([]rune(text))
	return (n + runesPerToken - 1) / runesPerToken
}

// Chunker splits documents into overlapping chunks of bounded token size.
//
// Splits prefer paragraph breaks, then line breaks, then sentence ends,
// then spaces, and fall back to a hard cut. The separator stays with the
// chunk it ends.
type Chunker struct {
	chunkSize    int
	overlap      int
	maxRunes     int
	overlapRunes int
}

// NewChunker creates a chunker producing chunks of at most chunkSize
// estimated tokens, overlapping by max(chunkSize/10, 50) tokens.
func NewChunker(chunkSize int) (*Chunker, error) {
	if chunkSize < 1 {
		return nil, ErrInvalidChunkSize
	}
	overlap := max(chunkSize/10, 50)
	maxRunes := chunkSize * runesPerToken
	// Overlap must stay below half a chunk or splitting cannot advance.
	overlapRunes := min(overlap*runesPerToken, maxRunes/2-1)
	overlapRunes = max(overlapRunes, 0)
	return &Chunker{
		chunkSize:    chunkSize,
		overlap:      overlap,
		maxRunes:     maxRunes,
		overlapRunes: overlapRunes,
	}, nil
}

// ChunkSize returns the token budget per chunk.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the nominal overlap in tokens.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split cuts doc into chunks. Offsets are rune positions in doc.Text.
func (c *Chunker) Split(doc core.Document) []*core.Chunk {
	runes := []rune(doc.Text)
	var chunks []*core.Chunk
	for _, span := range c.spans(runes) {
		idx := len(chunks)
		meta := make(map[string]string, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta["chunk_index"] = strconv.Itoa(idx)
		meta["document_id"] = doc.ID

		chunks = append(chunks, &core.Chunk{
			ID:         doc.ID + "#" + strconv.Itoa(idx),
			DocumentID: doc.ID,
			Index:      idx,
			Text:       string(runes[span[0]:span[1]]),
			Start:      span[0],
			End:        span[1],
			Metadata:   meta,
		})
	}
	return chunks
}

// SplitAll splits every document, preserving order.
func (c *Chunker) SplitAll(docs []core.Document) []*core.Chunk {
	var all []*core.Chunk
	for _, doc := range docs {
		all = append(all, c.Split(doc)...)
	}
	return all
}

func (c *Chunker) spans(runes []rune) [][2]int {
	n := len(runes)
	if n == 0 {
		return nil
	}
	var spans [][2]int
	start := 0
	for {
		if n-start <= c.maxRunes {
			spans = append(spans, [2]int{start, n})
			return spans
		}
		end := c.boundary(runes, start+max(c.maxRunes/2, 1), start+c.maxRunes)
		spans = append(spans, [2]int{start, end})

		next := c.overlapStart(runes, end-c.overlapRunes, end)
		if next <= start {
			next = end
		}
		start = next
	}
}

// boundary returns the split point in (lo, hi]: just past the last
// occurrence of the highest priority separator, or hi.
func (c *Chunker) boundary(runes []rune, lo, hi int) int {
	for _, sep := range separators {
		for i := hi - len(sep); i >= lo; i-- {
			if matchAt(runes, i, sep) {
				return i + len(sep)
			}
		}
	}
	return hi
}

// overlapStart moves from to the start of the next word before end so the
// overlap does not begin mid-word. Without such a point from is kept.
func (c *Chunker) overlapStart(runes []rune, from, end int) int {
	if from <= 0 {
		return 0
	}
	for i := from; i < end; i++ {
		if unicode.IsSpace(runes[i-1]) && !unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return from
}

func matchAt(runes []rune, i int, sep []rune) bool {
	if i < 0 || i+len(sep) > len(runes) {
		return false
	}
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}
