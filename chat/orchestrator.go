package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// Mode selects between retrieval-augmented and plain conversation.
type Mode int

const (
	ModeRAG Mode = iota
	ModePlain
)

func (m Mode) String() string {
	if m == ModePlain {
		return "plain"
	}
	return "rag"
}

// Outcome is the terminal state of a chat request.
type Outcome int

const (
	OutcomeComplete Outcome = iota
	OutcomeDegraded
	OutcomeError
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "error"
	}
}

// Request is one chat query. Model and SessionID are optional.
type Request struct {
	Query     string
	Model     string
	SessionID string
}

// Observer is notified once when a request reaches its terminal state.
type Observer interface {
	ChatFinished(mode Mode, outcome Outcome, elapsed time.Duration)
}

// Orchestrator runs chat requests against session-scoped memory.
type Orchestrator struct {
	sessions     storage.SessionRepository
	messages     storage.MessageRepository
	models       ai.ModelFactory
	retriever    Retriever
	memory       *Memory
	window       int
	sessionLocks bool
	ragPrompt    string
	plainPrompt  string
	observer     Observer
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithMemoryWindow sets how many past messages are sent to the model.
// Default is 20.
func WithMemoryWindow(k int) Option {
	return func(o *Orchestrator) error {
		if k <= 0 {
			return ErrInvalidMemoryWindow
		}
		o.window = k
		return nil
	}
}

// WithSessionLocks toggles serialization of writes to the same session.
// Enabled by default.
func WithSessionLocks(enabled bool) Option {
	return func(o *Orchestrator) error {
		o.sessionLocks = enabled
		return nil
	}
}

// WithSystemPrompts replaces the RAG and plain system prompts.
// Empty values keep the defaults.
func WithSystemPrompts(rag, plain string) Option {
	return func(o *Orchestrator) error {
		if rag != "" {
			o.ragPrompt = rag
		}
		if plain != "" {
			o.plainPrompt = plain
		}
		return nil
	}
}

// WithObserver registers a request observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) error {
		o.observer = obs
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "chat")
		return nil
	}
}

// NewOrchestrator creates a new chat orchestrator.
func NewOrchestrator(
	sessions storage.SessionRepository,
	messages storage.MessageRepository,
	models ai.ModelFactory,
	retriever Retriever,
	opts ...Option,
) (*Orchestrator, error) {
	if sessions == nil {
		return nil, ErrSessionRepositoryRequired
	}
	if messages == nil {
		return nil, ErrMessageRepositoryRequired
	}
	if models == nil {
		return nil, ErrModelFactoryRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	o := &Orchestrator{
		sessions:     sessions,
		messages:     messages,
		models:       models,
		retriever:    retriever,
		window:       DefaultMemoryWindow,
		sessionLocks: true,
		ragPrompt:    RAGSystemPrompt,
		plainPrompt:  PlainSystemPrompt,
		logger:       slog.Default().With("component", "chat"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	memOpts := []MemoryOption{WithWindow(o.window), WithMemoryLogger(o.logger)}
	if !o.sessionLocks {
		memOpts = append(memOpts, WithoutSessionLocks())
	}
	memory, err := NewMemory(messages, memOpts...)
	if err != nil {
		return nil, err
	}
	o.memory = memory
	return o, nil
}

// StreamRAG answers req from retrieved document chunks, token by token.
func (o *Orchestrator) StreamRAG(ctx context.Context, req Request) (*Stream, error) {
	return o.stream(ctx, ModeRAG, req)
}

// StreamPlain answers req without retrieval, token by token.
func (o *Orchestrator) StreamPlain(ctx context.Context, req Request) (*Stream, error) {
	return o.stream(ctx, ModePlain, req)
}

// Chat answers req in the given mode and returns the complete reply.
// Timeout and connection failures yield ApologyMessage and no error.
func (o *Orchestrator) Chat(ctx context.Context, mode Mode, req Request) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", ErrEmptyQuery
	}
	sessionID := o.resolveSession(ctx, req.SessionID)
	ctx, cancel := context.WithCancel(WithSessionID(ctx, sessionID))
	defer cancel()

	start := time.Now()
	reply, outcome, err := o.execute(ctx, mode, sessionID, req, nil)
	o.finish(mode, sessionID, outcome, err, time.Since(start))
	if outcome == OutcomeDegraded {
		return ApologyMessage, nil
	}
	return reply, err
}

func (o *Orchestrator) stream(ctx context.Context, mode Mode, req Request) (*Stream, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	sessionID := o.resolveSession(ctx, req.SessionID)
	callCtx, cancel := context.WithCancel(WithSessionID(ctx, sessionID))
	s := newStream(sessionID, cancel)

	go func() {
		start := time.Now()
		var (
			outcome   = OutcomeError
			err       error
			streamErr error
		)
		defer func() {
			cancel()
			o.finish(mode, sessionID, outcome, err, time.Since(start))
			s.finish(streamErr)
		}()

		_, outcome, err = o.execute(callCtx, mode, sessionID, req, func(token string) error {
			return s.send(callCtx, token)
		})
		streamErr = err
		if outcome == OutcomeDegraded {
			streamErr = nil
			if sendErr := s.send(callCtx, ApologyMessage); sendErr != nil {
				outcome, streamErr = OutcomeCancelled, sendErr
			}
		}
	}()
	return s, nil
}

// execute runs one request inside ctx, which must carry sessionID.
func (o *Orchestrator) execute(ctx context.Context, mode Mode, sessionID string, req Request, onToken func(string) error) (string, Outcome, error) {
	o.logger.Info("chat request", "mode", mode, "session", sessionID, "model", req.Model)
	o.prepareSession(ctx, sessionID, req.Query)

	model, owned, err := o.selectModel(req.Model)
	if err != nil {
		return "", OutcomeError, err
	}
	if owned {
		defer func() {
			if closeErr := model.Close(); closeErr != nil {
				o.logger.Warn("failed to close chat model", "model", model.Name(), "err", closeErr)
			}
		}()
	}

	bot := &Chatbot{Memory: o.memory, Model: model}
	switch mode {
	case ModePlain:
		bot.SystemPrompt = o.plainPrompt
	default:
		bot.SystemPrompt = o.ragPrompt
		bot.Retriever = o.retriever
	}

	var reply string
	if onToken == nil {
		reply, err = bot.Chat(ctx, req.Query)
	} else {
		reply, err = bot.StreamChat(ctx, req.Query, onToken)
	}
	return reply, classify(ctx, err), err
}

func classify(ctx context.Context, err error) Outcome {
	switch {
	case err == nil:
		return OutcomeComplete
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return OutcomeCancelled
	case ai.IsTransient(err):
		return OutcomeDegraded
	default:
		return OutcomeError
	}
}

// resolveSession maps missing and unknown sessions to the fallback session.
func (o *Orchestrator) resolveSession(ctx context.Context, sessionID string) string {
	if sessionID == "" || sessionID == core.DefaultSessionID {
		return core.DefaultSessionID
	}
	exists, err := o.sessions.SessionExists(ctx, sessionID)
	if err != nil {
		o.logger.Warn("session lookup failed, using fallback session", "session", sessionID, "err", err)
		return core.DefaultSessionID
	}
	if !exists {
		o.logger.Warn("unknown session, using fallback session", "session", sessionID)
		return core.DefaultSessionID
	}
	return sessionID
}

// prepareSession titles a session on its first message and touches it
// otherwise. Failures are logged; the request proceeds regardless.
func (o *Orchestrator) prepareSession(ctx context.Context, sessionID, query string) {
	if sessionID == core.DefaultSessionID {
		return
	}
	unlock := o.memory.lock(sessionID)
	defer unlock()

	history, err := o.messages.GetMessages(ctx, sessionID)
	if err != nil {
		o.logger.Warn("failed to load session history", "session", sessionID, "err", err)
		return
	}
	if len(history) == 0 {
		title := core.DeriveTitle(query)
		if err := o.sessions.UpdateTitle(ctx, sessionID, title); err != nil {
			o.logger.Warn("failed to title session", "session", sessionID, "err", err)
		}
		return
	}
	if err := o.sessions.Touch(ctx, sessionID); err != nil {
		o.logger.Warn("failed to touch session", "session", sessionID, "err", err)
	}
}

// selectModel returns the shared default model or a fresh model owned by
// the caller.
func (o *Orchestrator) selectModel(name string) (ai.ChatModel, bool, error) {
	if name == "" || name == o.models.DefaultName() {
		return o.models.Default(), false, nil
	}
	model, err := o.models.ForName(name)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, name, err)
	}
	return model, true, nil
}

func (o *Orchestrator) finish(mode Mode, sessionID string, outcome Outcome, err error, elapsed time.Duration) {
	switch outcome {
	case OutcomeError:
		o.logger.Error("chat request failed", "mode", mode, "session", sessionID, "err", err)
	case OutcomeDegraded:
		o.logger.Warn("model unreachable, replying with apology", "mode", mode, "session", sessionID, "err", err)
	default:
		o.logger.Info("chat request finished", "mode", mode, "session", sessionID, "outcome", outcome, "elapsed", elapsed)
	}
	if o.observer != nil {
		o.observer.ChatFinished(mode, outcome, elapsed)
	}
}
