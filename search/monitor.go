package search

import "github.com/poiesic/ragchat/core"

// SearchMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type SearchMonitor interface {
	Start(query string)
	AfterEmbedding(dimension int)
	AfterVectorSearch(hits []*core.ScoredChunk)
	VerbatimHit(hit *core.ScoredChunk)
	Finish(hits []*core.ScoredChunk)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterEmbedding(_ int)                    {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.ScoredChunk) {}
func (n *noopMonitor) VerbatimHit(_ *core.ScoredChunk)         {}
func (n *noopMonitor) Finish(_ []*core.ScoredChunk)            {}
