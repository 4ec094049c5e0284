package chat

import "errors"

var (
	// ErrSessionRepositoryRequired is returned when a session repository is not provided.
	ErrSessionRepositoryRequired = errors.New("session repository required")

	// ErrMessageRepositoryRequired is returned when a message repository is not provided.
	ErrMessageRepositoryRequired = errors.New("message repository required")

	// ErrModelFactoryRequired is returned when a model factory is not provided.
	ErrModelFactoryRequired = errors.New("model factory required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrChatbotIncomplete is returned by a Chatbot missing its model or memory.
	ErrChatbotIncomplete = errors.New("chatbot requires a model and a memory")

	// ErrInvalidMemoryWindow is returned when the memory window is not positive.
	ErrInvalidMemoryWindow = errors.New("memory window must be positive")

	// ErrNoSession is returned when a context carries no session id.
	ErrNoSession = errors.New("no session bound to context")

	// ErrEmptyQuery is returned for a blank chat query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrModelUnavailable is returned when the requested model cannot be created.
	ErrModelUnavailable = errors.New("model unavailable")
)
