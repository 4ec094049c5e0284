package openai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel implements ai.ChatModel on an OpenAI-compatible chat completion API.
type ChatModel struct {
	name        string
	llm         *openai.LLM
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

func newChatModel(config *ai.Config, name string) (*ChatModel, error) {
	if name == "" {
		return nil, ai.ErrEmptyModelName
	}
	llm, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(name),
	)
	if err != nil {
		return nil, err
	}
	return &ChatModel{
		name:        name,
		llm:         llm,
		temperature: config.Temperature,
		timeout:     config.Timeout,
		logger:      slog.Default().With("component", "openai-chat", "model", name),
	}, nil
}

// Name returns the model identifier.
func (m *ChatModel) Name() string {
	return m.name
}

// Generate returns the complete reply to messages.
func (m *ChatModel) Generate(ctx context.Context, messages []core.ChatMessage) (string, error) {
	return m.Stream(ctx, messages, nil)
}

// Stream sends the conversation and forwards each streamed chunk to onToken.
func (m *ChatModel) Stream(ctx context.Context, messages []core.ChatMessage, onToken func(string) error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := []llms.CallOption{llms.WithTemperature(m.temperature)}
	if onToken != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onToken(string(chunk))
		}))
	}

	m.logger.Debug("sending chat request", "messages", len(messages), "streaming", onToken != nil)
	resp, err := m.llm.GenerateContent(ctx, toMessageContent(messages), opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return resp.Choices[0].Content, nil
}

// Close is a no-op; the underlying HTTP client holds no dedicated resources.
func (m *ChatModel) Close() error {
	return nil
}

func toMessageContent(messages []core.ChatMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case core.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case core.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, msg.Content))
	}
	return out
}
