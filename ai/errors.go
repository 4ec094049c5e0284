package ai

import (
	"context"
	"errors"
	"net"
	"strings"
)

var (
	// ErrConfigRequired is returned when a provider is built without configuration.
	ErrConfigRequired = errors.New("ai config is required")
	// ErrEmptyModelName is returned by ModelFactory.ForName for a blank name.
	ErrEmptyModelName = errors.New("model name is empty")
	// ErrListUnsupported is returned when the model server cannot enumerate models.
	ErrListUnsupported = errors.New("model listing is not supported")
)

// IsTransient reports whether err looks like a timeout or a connectivity
// failure of the model server.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "connection")
}
