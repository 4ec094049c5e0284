package ollama

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/ragchat/core"
)

// ChatModel implements ai.ChatModel with the /api/chat endpoint.
type ChatModel struct {
	client      *api.Client
	name        string
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// Name returns the model identifier.
func (m *ChatModel) Name() string {
	return m.name
}

// Generate returns the complete reply to messages.
func (m *ChatModel) Generate(ctx context.Context, messages []core.ChatMessage) (string, error) {
	return m.chat(ctx, messages, false, nil)
}

// Stream forwards each streamed message fragment to onToken.
func (m *ChatModel) Stream(ctx context.Context, messages []core.ChatMessage, onToken func(string) error) (string, error) {
	return m.chat(ctx, messages, true, onToken)
}

func (m *ChatModel) chat(ctx context.Context, messages []core.ChatMessage, stream bool, onToken func(string) error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req := &api.ChatRequest{
		Model:    m.name,
		Messages: toAPIMessages(messages),
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": m.temperature,
		},
	}

	m.logger.Debug("sending chat request", "messages", len(messages), "streaming", stream)
	var reply strings.Builder
	err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		token := resp.Message.Content
		if token == "" {
			return nil
		}
		reply.WriteString(token)
		if onToken != nil {
			return onToken(token)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply.String(), nil
}

// Close is a no-op; models share the provider's client.
func (m *ChatModel) Close() error {
	return nil
}

func toAPIMessages(messages []core.ChatMessage) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, api.Message{Role: strings.ToLower(msg.Role.String()), Content: msg.Content})
	}
	return out
}
