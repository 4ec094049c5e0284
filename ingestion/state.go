package ingestion

import (
	"sync"

	"github.com/poiesic/ragchat/core"
)

// StateTracker holds the progress of the current or last ingestion run.
// All fields change under one lock so snapshots are never torn.
type StateTracker struct {
	mu    sync.RWMutex
	state core.ProcessingState
}

// NewStateTracker returns an idle tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{}
}

// Begin resets the counters and marks a run as in progress.
func (t *StateTracker) Begin() {
	t.mu.Lock()
	t.state = core.ProcessingState{Running: true}
	t.mu.Unlock()
}

// SetTotal records how many documents were read.
func (t *StateTracker) SetTotal(total int) {
	t.mu.Lock()
	t.state.Total = total
	t.mu.Unlock()
}

// SetChanged records how many documents need processing.
func (t *StateTracker) SetChanged(changed int) {
	t.mu.Lock()
	t.state.Changed = changed
	t.mu.Unlock()
}

// Finish ends a successful run with the number of chunks written.
func (t *StateTracker) Finish(processed int) {
	t.mu.Lock()
	t.state.Processed = processed
	t.state.Running = false
	t.mu.Unlock()
}

// Fail ends a run without touching the counters.
func (t *StateTracker) Fail() {
	t.mu.Lock()
	t.state.Running = false
	t.mu.Unlock()
}

// Snapshot returns a consistent copy of the state.
func (t *StateTracker) Snapshot() core.ProcessingState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}
