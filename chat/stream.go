package chat

import "context"

// Stream is the token stream of one chat request.
type Stream struct {
	sessionID string
	tokens    chan string
	done      chan struct{}
	cancel    context.CancelFunc
	err       error
}

func newStream(sessionID string, cancel context.CancelFunc) *Stream {
	return &Stream{
		sessionID: sessionID,
		tokens:    make(chan string),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
}

// SessionID returns the session the request was resolved to.
func (s *Stream) SessionID() string {
	return s.sessionID
}

// Tokens returns the reply tokens in order. The channel is closed when
// generation ends for any reason.
func (s *Stream) Tokens() <-chan string {
	return s.tokens
}

// Err blocks until the stream has ended and returns its terminal error.
// It is nil for completed replies and for replies replaced by the apology.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}

// Close cancels generation and waits for cleanup to finish.
func (s *Stream) Close() {
	s.cancel()
	for range s.tokens {
	}
	<-s.done
}

// Collect drains the stream and returns the concatenated tokens.
func (s *Stream) Collect() (string, error) {
	var text []byte
	for tok := range s.tokens {
		text = append(text, tok...)
	}
	return string(text), s.Err()
}

func (s *Stream) send(ctx context.Context, token string) error {
	select {
	case s.tokens <- token:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stream) finish(err error) {
	s.err = err
	close(s.tokens)
	close(s.done)
}
