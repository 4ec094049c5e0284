package badger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_Create(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	session, err := repos.Sessions.CreateSession(ctx)
	require.NoError(t, err)

	_, err = uuid.Parse(session.ID)
	assert.NoError(t, err, "session id should be a UUID")
	assert.Equal(t, core.DefaultSessionTitle, session.Title)

	exists, err := repos.Sessions.SessionExists(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSessionRepository_ExistsUnknown(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	exists, err := repos.Sessions.SessionExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repos.Sessions.SessionExists(ctx, "")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSessionRepository_ListOrderedByUpdatedAtDesc(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	first, err := repos.Sessions.CreateSession(ctx)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := repos.Sessions.CreateSession(ctx)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	third, err := repos.Sessions.CreateSession(ctx)
	require.NoError(t, err)

	sessions, err := repos.Sessions.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, sessionIDs(sessions))

	// Touching the oldest session moves it to the front
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, repos.Sessions.Touch(ctx, first.ID))

	sessions, err = repos.Sessions.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3, "touch must not duplicate index entries")
	assert.Equal(t, []string{first.ID, third.ID, second.ID}, sessionIDs(sessions))
}

func TestSessionRepository_UpdateTitle(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	session, err := repos.Sessions.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, repos.Sessions.UpdateTitle(ctx, session.ID, "Explain chunking"))

	got, err := repos.Sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Explain chunking", got.Title)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	err = repos.Sessions.UpdateTitle(ctx, "missing", "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionRepository_DeleteRemovesMessages(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	keep, err := repos.Sessions.CreateSession(ctx)
	require.NoError(t, err)
	drop, err := repos.Sessions.CreateSession(ctx)
	require.NoError(t, err)

	for _, id := range []string{keep.ID, drop.ID} {
		require.NoError(t, repos.Messages.ReplaceAll(ctx, id, []*core.ChatMessage{
			{Role: core.RoleUser, Content: "q"},
			{Role: core.RoleAssistant, Content: "a"},
		}))
	}

	require.NoError(t, repos.Sessions.DeleteSession(ctx, drop.ID))

	exists, err := repos.Sessions.SessionExists(ctx, drop.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	msgs, err := repos.Messages.LoadAll(ctx, drop.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = repos.Messages.LoadAll(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	sessions, err := repos.Sessions.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, sessionIDs(sessions))

	assert.ErrorIs(t, repos.Sessions.DeleteSession(ctx, drop.ID), storage.ErrNotFound)
}

func sessionIDs(sessions []*core.ChatSession) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
