package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/ragchat/core"
)

// MockChatModel is a test double for ai.ChatModel.
// By default it streams Reply split on spaces, keeping the separators so
// the concatenated tokens equal Reply.
type MockChatModel struct {
	ModelName string
	Reply     string

	// StreamFunc replaces the default behavior of Stream and Generate if set.
	StreamFunc func(ctx context.Context, messages []core.ChatMessage, onToken func(string) error) (string, error)

	mu     sync.Mutex
	calls  [][]core.ChatMessage
	closed int
}

// NewMockChatModel creates a model named name that always answers reply.
func NewMockChatModel(name, reply string) *MockChatModel {
	return &MockChatModel{ModelName: name, Reply: reply}
}

// Name returns ModelName.
func (m *MockChatModel) Name() string {
	return m.ModelName
}

// Generate returns the full reply without streaming.
func (m *MockChatModel) Generate(ctx context.Context, messages []core.ChatMessage) (string, error) {
	return m.Stream(ctx, messages, nil)
}

// Stream records the call and emits tokens to onToken.
func (m *MockChatModel) Stream(ctx context.Context, messages []core.ChatMessage, onToken func(string) error) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]core.ChatMessage(nil), messages...))
	m.mu.Unlock()

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, messages, onToken)
	}
	for _, tok := range SplitTokens(m.Reply) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if onToken != nil {
			if err := onToken(tok); err != nil {
				return "", err
			}
		}
	}
	return m.Reply, nil
}

// Close counts the call.
func (m *MockChatModel) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	return nil
}

// Calls returns the message lists passed to Stream or Generate, in order.
func (m *MockChatModel) Calls() [][]core.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]core.ChatMessage(nil), m.calls...)
}

// LastCall returns the messages of the most recent call, or nil.
func (m *MockChatModel) LastCall() []core.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// CloseCount returns how many times Close was called.
func (m *MockChatModel) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SplitTokens splits s after every space.
func SplitTokens(s string) []string {
	if s == "" {
		return nil
	}
	return strings.SplitAfter(s, " ")
}
