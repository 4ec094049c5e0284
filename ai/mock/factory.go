package mock

import (
	"context"
	"sync"

	"github.com/poiesic/ragchat/ai"
)

// MockModelFactory is a test double for ai.ModelFactory and ai.ModelLister.
type MockModelFactory struct {
	DefaultModel *MockChatModel

	// ForNameFunc is called by ForName if set. Otherwise a new
	// MockChatModel answering the default model's Reply is created.
	ForNameFunc func(name string) (ai.ChatModel, error)

	// Installed is returned by ListModels. ListErr, if set, is returned instead.
	Installed []string
	ListErr   error

	mu      sync.Mutex
	created []*MockChatModel
}

// NewMockModelFactory creates a factory whose default model answers reply.
func NewMockModelFactory(defaultName, reply string) *MockModelFactory {
	return &MockModelFactory{DefaultModel: NewMockChatModel(defaultName, reply)}
}

// DefaultName returns the default model's name.
func (f *MockModelFactory) DefaultName() string {
	return f.DefaultModel.ModelName
}

// Default returns the shared default model.
func (f *MockModelFactory) Default() ai.ChatModel {
	return f.DefaultModel
}

// ForName returns a fresh model for name.
func (f *MockModelFactory) ForName(name string) (ai.ChatModel, error) {
	if f.ForNameFunc != nil {
		return f.ForNameFunc(name)
	}
	if name == "" {
		return nil, ai.ErrEmptyModelName
	}
	m := NewMockChatModel(name, f.DefaultModel.Reply)
	m.StreamFunc = f.DefaultModel.StreamFunc
	f.mu.Lock()
	f.created = append(f.created, m)
	f.mu.Unlock()
	return m, nil
}

// Created returns the models handed out by ForName.
func (f *MockModelFactory) Created() []*MockChatModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*MockChatModel(nil), f.created...)
}

// ListModels returns Installed or ListErr.
func (f *MockModelFactory) ListModels(ctx context.Context) ([]string, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Installed, nil
}
