package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/search"
)

// Retriever finds chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]*core.ScoredChunk, error)
}

// Bot answers queries within the session bound to the context.
type Bot interface {
	Chat(ctx context.Context, query string) (string, error)
	StreamChat(ctx context.Context, query string, onToken func(token string) error) (string, error)
}

// Chatbot is a Bot assembled from its parts. A nil Retriever makes it a
// plain conversational bot.
type Chatbot struct {
	SystemPrompt string
	Memory       *Memory
	Retriever    Retriever
	Model        ai.ChatModel
}

var _ Bot = (*Chatbot)(nil)

// Chat returns the complete reply and records the turn in memory.
func (b *Chatbot) Chat(ctx context.Context, query string) (string, error) {
	return b.StreamChat(ctx, query, nil)
}

// StreamChat forwards reply tokens to onToken as the model produces them.
// The turn is recorded in memory only when generation completes.
func (b *Chatbot) StreamChat(ctx context.Context, query string, onToken func(token string) error) (string, error) {
	if b.Model == nil || b.Memory == nil {
		return "", ErrChatbotIncomplete
	}
	askedAt := time.Now().UTC()

	messages, err := b.prompt(ctx, query)
	if err != nil {
		return "", err
	}

	var reply string
	if onToken == nil {
		reply, err = b.Model.Generate(ctx, messages)
	} else {
		reply, err = b.Model.Stream(ctx, messages, onToken)
	}
	if err != nil {
		return "", err
	}

	if err := b.Memory.Append(ctx, query, askedAt, reply); err != nil {
		return reply, err
	}
	return reply, nil
}

// prompt builds system prompt, memory window and the user message,
// augmented with retrieved context when a retriever is set.
func (b *Chatbot) prompt(ctx context.Context, query string) ([]core.ChatMessage, error) {
	history, err := b.Memory.Window(ctx)
	if err != nil {
		return nil, err
	}

	user := query
	if b.Retriever != nil {
		hits, err := b.Retriever.Retrieve(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("retrieve context: %w", err)
		}
		user = search.Augment(query, hits)
	}

	messages := make([]core.ChatMessage, 0, len(history)+2)
	if b.SystemPrompt != "" {
		messages = append(messages, core.ChatMessage{Role: core.RoleSystem, Content: b.SystemPrompt})
	}
	messages = append(messages, history...)
	messages = append(messages, core.ChatMessage{Role: core.RoleUser, Content: user})
	return messages, nil
}
