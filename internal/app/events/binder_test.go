package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterm/internal/app/api"
	"chatterm/internal/app/chat"
	"chatterm/internal/app/db"
	"chatterm/internal/app/session"
	"chatterm/internal/pkg/errs"
)

func newManager(t *testing.T, f *fixture) (*session.Manager, *session.Store) {
	t.Helper()

	sqlDB, err := db.Open(db.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store := session.NewStore(sqlDB)
	client, err := api.New(f.backend.APIURL(), store)
	require.NoError(t, err)

	return session.NewManager(store, client), store
}

func TestBinderFollowsSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	manager, _ := newManager(t, f)

	binder := Bind(ctx, manager, f.channel, f.store)
	defer binder.Stop()
	assert.Equal(t, Disconnected, f.channel.State(), "no session, no connection")

	_, err := manager.Login(ctx, "me@example.com", "secret1")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.backend.Connected(f.me) }, waitFor, tick)
	assert.Equal(t, Connected, f.channel.State())

	f.store.RecordFetchedConversations([]chat.Conversation{{ID: 1}})

	require.NoError(t, manager.Logout(ctx))
	assert.Equal(t, Disconnected, f.channel.State())
	assert.Empty(t, f.store.Snapshot().Conversations)
	require.Eventually(t, func() bool { return !f.backend.Connected(f.me) }, waitFor, tick)
}

func TestBinderConnectsRestoredSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	manager, store := newManager(t, f)

	require.NoError(t, store.Save(ctx, session.Session{User: f.me, Token: f.backend.Token(f.me)}))
	_, err := manager.Restore(ctx)
	require.NoError(t, err)

	binder := Bind(ctx, manager, f.channel, f.store)
	defer binder.Stop()

	require.Eventually(t, func() bool { return f.backend.Connected(f.me) }, waitFor, tick)
}

func TestBinderReconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	manager, _ := newManager(t, f)

	binder := Bind(ctx, manager, f.channel, f.store)
	defer binder.Stop()

	assert.True(t, errs.Is(binder.Reconnect(ctx), errs.ErrNotLoggedIn))

	_, err := manager.Login(ctx, "me@example.com", "secret1")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.backend.Connected(f.me) }, waitFor, tick)

	f.backend.Disconnect(f.me)
	require.Eventually(t, func() bool { return f.channel.State() == Disconnected }, waitFor, tick)

	require.NoError(t, binder.Reconnect(ctx))
	require.Eventually(t, func() bool { return f.backend.Connected(f.me) }, waitFor, tick)
}
