package friends

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterm/internal/app/user"
	"chatterm/internal/pkg/errs"
)

var (
	me    = user.User{ID: 1, Username: "mert"}
	ayse  = user.User{ID: 2, Username: "ayse"}
	bora  = user.User{ID: 3, Username: "bora"}
	cem   = user.User{ID: 4, Username: "cem"}
	deniz = user.User{ID: 5, Username: "deniz"}
)

type fakeAPI struct {
	mu sync.Mutex

	friends  []user.User
	incoming []Request
	outgoing []Request
	users    []user.User

	failOutgoing error
	failAction   error
	calls        []string
}

func (f *fakeAPI) call(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeAPI) Friends(context.Context) ([]user.User, error) {
	f.call("friends")
	return f.friends, nil
}

func (f *fakeAPI) IncomingRequests(context.Context) ([]Request, error) {
	f.call("incoming")
	return f.incoming, nil
}

func (f *fakeAPI) OutgoingRequests(context.Context) ([]Request, error) {
	f.call("outgoing")
	return f.outgoing, f.failOutgoing
}

func (f *fakeAPI) SearchUsers(_ context.Context, query string) ([]user.User, error) {
	f.call("search:" + query)
	return f.users, nil
}

func (f *fakeAPI) SendFriendRequest(_ context.Context, username string) error {
	f.call("send:" + username)
	if f.failAction != nil {
		return f.failAction
	}
	f.outgoing = append(f.outgoing, Request{ID: 99, UserAID: me.ID, UserBID: cem.ID, UserA: me, UserB: cem})
	return nil
}

func (f *fakeAPI) AcceptFriendRequest(context.Context, int64) error {
	f.call("accept")
	return f.failAction
}

func (f *fakeAPI) DeclineFriendRequest(context.Context, int64) error {
	f.call("decline")
	return f.failAction
}

func (f *fakeAPI) RemoveFriend(context.Context, int64) error {
	f.call("remove")
	return f.failAction
}

func (f *fakeAPI) callSet() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]bool{}
	for _, c := range f.calls {
		out[c] = true
	}
	return out
}

func TestOutgoingTarget(t *testing.T) {
	req := Request{UserAID: me.ID, UserBID: ayse.ID, UserA: me, UserB: ayse}
	assert.Equal(t, ayse, OutgoingTarget(req, me.ID))

	reversed := Request{UserAID: ayse.ID, UserBID: me.ID, UserA: ayse, UserB: me}
	assert.Equal(t, ayse, OutgoingTarget(reversed, me.ID))
}

func TestRefreshLoadsAllLists(t *testing.T) {
	api := &fakeAPI{
		friends:  []user.User{ayse},
		incoming: []Request{{ID: 7, Requester: bora}},
	}
	p := NewPanel(api)

	require.NoError(t, p.Refresh(context.Background()))

	s := p.State()
	assert.Equal(t, []user.User{ayse}, s.Friends)
	assert.Len(t, s.Incoming, 1)
	assert.NotNil(t, s.Outgoing)
	assert.Empty(t, s.Outgoing)
}

func TestRefreshFailureIsSilent(t *testing.T) {
	api := &fakeAPI{friends: []user.User{ayse}}
	p := NewPanel(api)
	require.NoError(t, p.Refresh(context.Background()))

	api.friends = []user.User{ayse, bora}
	api.failOutgoing = errs.NewError(errs.ErrNetwork)

	assert.Error(t, p.Refresh(context.Background()))

	s := p.State()
	assert.Equal(t, []user.User{ayse}, s.Friends, "previous lists are kept")
	assert.Nil(t, s.Err, "refresh failures are not shown")
}

func TestSwitchTab(t *testing.T) {
	api := &fakeAPI{users: []user.User{me, ayse}}
	p := NewPanel(api)
	ctx := context.Background()

	require.NoError(t, p.SwitchTab(ctx, TabDiscover))
	s := p.State()
	assert.Equal(t, TabDiscover, s.Tab)
	assert.Len(t, s.Discover, 2)
	assert.False(t, s.Loading)
	assert.Equal(t, map[string]bool{"search:": true, "outgoing": true}, api.callSet())

	require.NoError(t, p.SwitchTab(ctx, TabRequests))
	calls := api.callSet()
	assert.True(t, calls["friends"])
	assert.True(t, calls["incoming"])
}

func TestDiscoverEntriesRelations(t *testing.T) {
	api := &fakeAPI{
		friends:  []user.User{ayse},
		incoming: []Request{{ID: 1, UserAID: cem.ID, UserBID: me.ID, Requester: cem}},
		outgoing: []Request{{ID: 2, UserAID: me.ID, UserBID: bora.ID, UserA: me, UserB: bora}},
		users:    []user.User{me, ayse, bora, cem, deniz},
	}
	p := NewPanel(api)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))
	require.NoError(t, p.Search(ctx, ""))

	got := map[string]Relation{}
	for _, e := range p.DiscoverEntries(me.ID) {
		got[e.User.Username] = e.Relation
	}

	assert.Equal(t, map[string]Relation{
		"mert":  RelationSelf,
		"ayse":  RelationFriend,
		"bora":  RelationPending,
		"cem":   RelationIncoming,
		"deniz": RelationNone,
	}, got)
}

func TestSendRequest(t *testing.T) {
	api := &fakeAPI{users: []user.User{cem}}
	p := NewPanel(api)
	ctx := context.Background()

	require.NoError(t, p.SendRequest(ctx, "cem"))

	s := p.State()
	assert.Contains(t, s.Notice, "cem")
	require.Len(t, s.Outgoing, 1)
	assert.Equal(t, cem, OutgoingTarget(s.Outgoing[0], me.ID))

	require.NoError(t, p.Search(ctx, ""))
	assert.Equal(t, RelationPending, p.DiscoverEntries(me.ID)[0].Relation)
}

func TestActionFailureIsReported(t *testing.T) {
	body := []byte(`{"error":"Request already sent"}`)
	api := &fakeAPI{failAction: errs.NewError(errs.ErrRequestFailed).WithResponse(409, body, "Request already sent")}
	p := NewPanel(api)
	ctx := context.Background()

	err := p.SendRequest(ctx, "cem")
	require.Error(t, err)

	s := p.State()
	require.NotNil(t, s.Err)
	assert.Equal(t, "Request already sent", s.Err.Message)
	assert.Empty(t, s.Notice)
	assert.False(t, api.callSet()["outgoing"], "no refresh after a failed action")

	p.Dismiss()
	assert.Nil(t, p.State().Err)

	api.failAction = errors.New("socket hang up")
	require.Error(t, p.Accept(ctx, 1))
	assert.Equal(t, errs.ErrUnknown, p.State().Err.Code)
}

func TestAcceptDeclineRemoveRefresh(t *testing.T) {
	ctx := context.Background()

	for name, action := range map[string]func(p *Panel) error{
		"accept":  func(p *Panel) error { return p.Accept(ctx, 1) },
		"decline": func(p *Panel) error { return p.Decline(ctx, 1) },
		"remove":  func(p *Panel) error { return p.Remove(ctx, 2) },
	} {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{friends: []user.User{ayse}}
			p := NewPanel(api)

			require.NoError(t, action(p))

			calls := api.callSet()
			assert.True(t, calls[name])
			assert.True(t, calls["friends"])
			assert.True(t, calls["incoming"])
			assert.True(t, calls["outgoing"])
			assert.Equal(t, []user.User{ayse}, p.State().Friends)
		})
	}
}

func TestReset(t *testing.T) {
	p := NewPanel(&fakeAPI{friends: []user.User{ayse}})
	require.NoError(t, p.SwitchTab(context.Background(), TabRequests))

	p.Reset()

	s := p.State()
	assert.Equal(t, TabFriends, s.Tab)
	assert.Empty(t, s.Friends)
}
