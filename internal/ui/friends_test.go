package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterm/internal/app/friends"
)

// openFriends opens the overlay and completes its initial load.
func openFriends(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(m, key("ctrl+f"))
	require.True(t, m.friends.open)
	require.True(t, m.friends.busy)
	m = run(t, m, cmd)
	require.False(t, m.friends.busy)
	return m
}

func TestFriendsOverlayListsFriends(t *testing.T) {
	f := newFixture(t)
	f.backend.AddFriends(f.me, f.carol)
	m := openFriends(t, f.signedIn(t))

	view := m.View()
	assert.Contains(t, view, "carol")
	assert.Contains(t, view, "Discover")

	m = press(m, "esc")
	assert.False(t, m.friends.open)
	assert.Contains(t, m.View(), "ctrl+f: friends")
}

func TestFriendsOverlayAcceptRequest(t *testing.T) {
	f := newFixture(t)
	dan := f.backend.AddUser("dan", "dan@example.com", "secret1")
	f.backend.AddRequest(dan, f.me)
	m := openFriends(t, f.signedIn(t))

	m, cmd := update(m, key("tab"))
	require.Equal(t, friends.TabRequests, m.friends.tab)
	m = run(t, m, cmd)
	assert.Contains(t, m.View(), "wants to be friends")

	m, cmd = update(m, key("a"))
	require.NotNil(t, cmd)
	_, blocked := update(m, key("d"))
	assert.Nil(t, blocked, "one action at a time")

	m = run(t, m, cmd)
	assert.Contains(t, f.backend.Friends(f.me), dan)
	assert.Contains(t, m.View(), "Friend request accepted.")
	assert.Empty(t, f.deps.Friends.State().Incoming)
}

func TestFriendsOverlayRemoveNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.backend.AddFriends(f.me, f.carol)
	m := openFriends(t, f.signedIn(t))

	m = press(m, "x")
	assert.Equal(t, f.carol.ID, m.friends.confirm)
	assert.Contains(t, m.View(), "Remove this friend?")

	m, cmd := update(m, key("n"))
	assert.Nil(t, cmd)
	assert.Zero(t, m.friends.confirm)

	m = press(m, "x")
	m, cmd = update(m, key("y"))
	m = run(t, m, cmd)

	assert.Empty(t, f.backend.Friends(f.me))
	assert.Empty(t, f.deps.Friends.State().Friends)
}

func TestFriendsOverlayDiscoverSendsRequest(t *testing.T) {
	f := newFixture(t)
	m := openFriends(t, f.signedIn(t))

	m, cmd := update(m, key("tab"))
	m = run(t, m, cmd)
	m, cmd = update(m, key("tab"))
	require.Equal(t, friends.TabDiscover, m.friends.tab)
	m = run(t, m, cmd)
	assert.Len(t, f.deps.Friends.State().Discover, 3)

	m = typeText(m, "car")
	m, cmd = update(m, key("enter"))
	m = run(t, m, cmd)

	entries := f.deps.Friends.DiscoverEntries(f.me.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, friends.RelationNone, entries[0].Relation)

	m = press(m, "down")
	require.True(t, m.friends.inList)
	m, cmd = update(m, key("enter"))
	m = run(t, m, cmd)

	entries = f.deps.Friends.DiscoverEntries(f.me.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, friends.RelationPending, entries[0].Relation)
	assert.Contains(t, m.View(), "Friend request sent to carol.")
}

func TestFriendsOverlayOpensConversation(t *testing.T) {
	f := newFixture(t)
	f.backend.AddFriends(f.me, f.peer)
	m := openFriends(t, f.signedIn(t))

	m, cmd := update(m, key("enter"))
	require.NotNil(t, cmd)
	assert.False(t, m.friends.open)
	assert.Equal(t, focusComposer, m.focus)

	conv, ok := f.store.ActiveConversation()
	require.True(t, ok)
	assert.Equal(t, f.peer.ID, conv.Participant.ID)
}

func TestFriendsOverlayResetOnSignOut(t *testing.T) {
	f := newFixture(t)
	f.backend.AddFriends(f.me, f.carol)
	m := openFriends(t, f.signedIn(t))
	require.NotEmpty(t, f.deps.Friends.State().Friends)

	m, cmd := update(m, key("esc"))
	assert.Nil(t, cmd)
	m, cmd = update(m, key("ctrl+l"))
	m = run(t, m, cmd)

	assert.Equal(t, screenLogin, m.screen)
	assert.False(t, m.friends.open)
	assert.Empty(t, f.deps.Friends.State().Friends)
}
