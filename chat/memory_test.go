package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestNewMemory(t *testing.T) {
	repos := newTestRepos(t)

	_, err := NewMemory(nil)
	assert.ErrorIs(t, err, ErrMessageRepositoryRequired)

	_, err = NewMemory(repos.Messages, WithWindow(0))
	assert.ErrorIs(t, err, ErrInvalidMemoryWindow)

	m, err := NewMemory(repos.Messages)
	require.NoError(t, err)
	assert.Equal(t, DefaultMemoryWindow, m.WindowSize())
}

func TestMemory_RequiresSession(t *testing.T) {
	m, err := NewMemory(newTestRepos(t).Messages)
	require.NoError(t, err)

	_, err = m.Window(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	err = m.Append(context.Background(), "q", time.Now(), "a")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemory_WindowKeepsMostRecent(t *testing.T) {
	repos := newTestRepos(t)
	m, err := NewMemory(repos.Messages, WithWindow(4))
	require.NoError(t, err)
	ctx := WithSessionID(context.Background(), "s-1")

	for i := range 5 {
		require.NoError(t, m.Append(ctx, fmt.Sprintf("q%d", i), time.Now().UTC(), fmt.Sprintf("a%d", i)))
	}

	window, err := m.Window(ctx)
	require.NoError(t, err)
	require.Len(t, window, 4)
	assert.Equal(t, "q3", window[0].Content)
	assert.Equal(t, core.RoleUser, window[0].Role)
	assert.Equal(t, "a4", window[3].Content)
	assert.Equal(t, core.RoleAssistant, window[3].Role)

	all, err := repos.Messages.GetMessages(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, all, 10)
}

func TestMemory_SessionsAreIsolated(t *testing.T) {
	repos := newTestRepos(t)
	m, err := NewMemory(repos.Messages)
	require.NoError(t, err)

	a := WithSessionID(context.Background(), "a")
	b := WithSessionID(context.Background(), "b")
	require.NoError(t, m.Append(a, "qa", time.Now().UTC(), "ra"))

	window, err := m.Window(b)
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestMemory_ConcurrentAppendsKeepEveryTurn(t *testing.T) {
	repos := newTestRepos(t)
	m, err := NewMemory(repos.Messages)
	require.NoError(t, err)
	ctx := WithSessionID(context.Background(), "shared")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Append(ctx, fmt.Sprintf("q%d", i), time.Now().UTC(), "a"))
		}()
	}
	wg.Wait()

	all, err := repos.Messages.GetMessages(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, all, 16)
	assert.Zero(t, m.locks.size())
}
