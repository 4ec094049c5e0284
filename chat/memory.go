package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// DefaultMemoryWindow is the number of past messages handed to the model.
const DefaultMemoryWindow = 20

// Memory is the bounded conversational memory of chat sessions.
// The session is taken from the context of every call.
type Memory struct {
	store  storage.MessageRepository
	window int
	locks  *sessionLocks
	logger *slog.Logger
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory) error

// WithWindow sets how many of the most recent messages Window returns.
func WithWindow(k int) MemoryOption {
	return func(m *Memory) error {
		if k <= 0 {
			return ErrInvalidMemoryWindow
		}
		m.window = k
		return nil
	}
}

// WithoutSessionLocks lets writes to the same session interleave.
// The last ReplaceAll wins.
func WithoutSessionLocks() MemoryOption {
	return func(m *Memory) error {
		m.locks = nil
		return nil
	}
}

// WithMemoryLogger sets a custom logger.
func WithMemoryLogger(logger *slog.Logger) MemoryOption {
	return func(m *Memory) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger.With("component", "chat-memory")
		return nil
	}
}

// NewMemory creates a memory over store with the default window.
func NewMemory(store storage.MessageRepository, opts ...MemoryOption) (*Memory, error) {
	if store == nil {
		return nil, ErrMessageRepositoryRequired
	}
	m := &Memory{
		store:  store,
		window: DefaultMemoryWindow,
		locks:  newSessionLocks(),
		logger: slog.Default().With("component", "chat-memory"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WindowSize returns the configured window.
func (m *Memory) WindowSize() int {
	return m.window
}

// Window returns the most recent messages of the session bound to ctx,
// oldest first. SYSTEM messages are never part of the window.
func (m *Memory) Window(ctx context.Context) ([]core.ChatMessage, error) {
	sessionID, ok := SessionIDFrom(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	stored, err := m.store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load memory of %s: %w", sessionID, err)
	}
	if len(stored) > m.window {
		stored = stored[len(stored)-m.window:]
	}
	out := make([]core.ChatMessage, len(stored))
	for i, msg := range stored {
		out[i] = *msg
	}
	return out, nil
}

// Append adds a completed user and assistant turn to the session bound to
// ctx. The whole history is loaded, extended and written back in one
// replace.
func (m *Memory) Append(ctx context.Context, query string, askedAt time.Time, reply string) error {
	sessionID, ok := SessionIDFrom(ctx)
	if !ok {
		return ErrNoSession
	}
	unlock := m.lock(sessionID)
	defer unlock()

	history, err := m.store.LoadAll(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load history of %s: %w", sessionID, err)
	}

	history = append(history,
		&core.ChatMessage{SessionID: sessionID, Role: core.RoleUser, Content: query, CreatedAt: askedAt},
		&core.ChatMessage{SessionID: sessionID, Role: core.RoleAssistant, Content: reply, CreatedAt: time.Now().UTC()},
	)

	if err := m.store.ReplaceAll(ctx, sessionID, history); err != nil {
		return fmt.Errorf("save history of %s: %w", sessionID, err)
	}
	m.logger.Debug("memory updated", "session", sessionID, "messages", len(history))
	return nil
}

// lock serializes writers of one session. It is a no-op when session
// locks are disabled.
func (m *Memory) lock(sessionID string) func() {
	if m.locks == nil {
		return func() {}
	}
	return m.locks.lock(sessionID)
}
