package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionContext(t *testing.T) {
	_, ok := SessionIDFrom(context.Background())
	assert.False(t, ok)

	ctx := WithSessionID(context.Background(), "s-1")
	id, ok := SessionIDFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "s-1", id)

	inner := WithSessionID(ctx, "s-2")
	id, _ = SessionIDFrom(inner)
	assert.Equal(t, "s-2", id)
	id, _ = SessionIDFrom(ctx)
	assert.Equal(t, "s-1", id, "derived contexts must not affect the parent")

	_, ok = SessionIDFrom(WithSessionID(context.Background(), ""))
	assert.False(t, ok)
}
