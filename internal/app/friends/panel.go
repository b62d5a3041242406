package friends

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chatterm/internal/app/user"
	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/logx"
)

// API is the part of the API client the panel needs.
type API interface {
	Friends(ctx context.Context) ([]user.User, error)
	IncomingRequests(ctx context.Context) ([]Request, error)
	OutgoingRequests(ctx context.Context) ([]Request, error)
	SearchUsers(ctx context.Context, query string) ([]user.User, error)
	SendFriendRequest(ctx context.Context, toUsername string) error
	AcceptFriendRequest(ctx context.Context, requestID int64) error
	DeclineFriendRequest(ctx context.Context, requestID int64) error
	RemoveFriend(ctx context.Context, friendID int64) error
}

// State is what the panel renders.
type State struct {
	Tab      Tab
	Friends  []user.User
	Incoming []Request
	Outgoing []Request
	Discover []user.User
	Query    string

	// Loading is true while the discover list is being fetched.
	Loading bool

	// Notice is the last success message, Err the last failed action. Either may be shown as a toast.
	Notice string
	Err    *errs.CustomError
}

// Panel owns the friend panel state. Methods may be called from any goroutine.
type Panel struct {
	api API

	mu    sync.Mutex
	state State

	logger zerolog.Logger
}

// NewPanel creates a Panel showing the friends tab.
func NewPanel(api API) *Panel {
	return &Panel{
		api:    api,
		state:  State{Tab: TabFriends},
		logger: logx.Component("friends"),
	}
}

// State returns a copy of the panel state.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	s.Friends = slices.Clone(s.Friends)
	s.Incoming = slices.Clone(s.Incoming)
	s.Outgoing = slices.Clone(s.Outgoing)
	s.Discover = slices.Clone(s.Discover)
	return s
}

func (p *Panel) update(fn func(s *State)) {
	p.mu.Lock()
	fn(&p.state)
	p.mu.Unlock()
}

// Refresh reloads friends and both request lists concurrently. Failures are only logged
// and leave the previous lists in place.
func (p *Panel) Refresh(ctx context.Context) error {
	var (
		friendList []user.User
		incoming   []Request
		outgoing   []Request
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		friendList, err = p.api.Friends(gctx)
		return err
	})
	g.Go(func() (err error) {
		incoming, err = p.api.IncomingRequests(gctx)
		return err
	})
	g.Go(func() (err error) {
		outgoing, err = p.api.OutgoingRequests(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to refresh friend panel.")
		return err
	}

	p.update(func(s *State) {
		s.Friends = nonNil(friendList)
		s.Incoming = nonNil(incoming)
		s.Outgoing = nonNil(outgoing)
	})
	return nil
}

// refreshOutgoing reloads only the outgoing requests.
func (p *Panel) refreshOutgoing(ctx context.Context) error {
	outgoing, err := p.api.OutgoingRequests(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to refresh outgoing requests.")
		return err
	}

	p.update(func(s *State) { s.Outgoing = nonNil(outgoing) })
	return nil
}

// SwitchTab selects tab and loads what it shows: the discover tab fetches the user list and
// outgoing requests, the other tabs refresh friends and requests.
func (p *Panel) SwitchTab(ctx context.Context, tab Tab) error {
	p.update(func(s *State) { s.Tab = tab })

	if tab != TabDiscover {
		return p.Refresh(ctx)
	}

	query := p.State().Query

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Search(gctx, query) })
	g.Go(func() error { return p.refreshOutgoing(gctx) })
	return g.Wait()
}

// Search fetches the discover list for query. A failure is reported through State.Err.
func (p *Panel) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	p.update(func(s *State) {
		s.Query = query
		s.Loading = true
	})

	users, err := p.api.SearchUsers(ctx, query)

	p.update(func(s *State) {
		s.Loading = false
		if err != nil {
			s.Err = errs.As(err)
			return
		}
		s.Discover = nonNil(users)
	})

	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to list users.")
	}
	return err
}

// SendRequest sends a friend request to username, then refreshes the outgoing requests.
func (p *Panel) SendRequest(ctx context.Context, username string) error {
	if err := p.api.SendFriendRequest(ctx, username); err != nil {
		return p.fail(err)
	}

	p.update(func(s *State) { s.Notice = fmt.Sprintf("Friend request sent to %s.", username) })
	_ = p.refreshOutgoing(ctx)
	return nil
}

// Accept accepts an incoming request, then refreshes.
func (p *Panel) Accept(ctx context.Context, requestID int64) error {
	if err := p.api.AcceptFriendRequest(ctx, requestID); err != nil {
		return p.fail(err)
	}

	p.update(func(s *State) { s.Notice = "Friend request accepted." })
	_ = p.Refresh(ctx)
	return nil
}

// Decline declines an incoming request, then refreshes.
func (p *Panel) Decline(ctx context.Context, requestID int64) error {
	if err := p.api.DeclineFriendRequest(ctx, requestID); err != nil {
		return p.fail(err)
	}

	_ = p.Refresh(ctx)
	return nil
}

// Remove ends a friendship, then refreshes.
func (p *Panel) Remove(ctx context.Context, friendID int64) error {
	if err := p.api.RemoveFriend(ctx, friendID); err != nil {
		return p.fail(err)
	}

	p.update(func(s *State) { s.Notice = "Friend removed." })
	_ = p.Refresh(ctx)
	return nil
}

func (p *Panel) fail(err error) error {
	ce := errs.As(err)
	p.update(func(s *State) {
		s.Err = ce
		s.Notice = ""
	})
	return ce
}

// Dismiss clears the notice and the error.
func (p *Panel) Dismiss() {
	p.update(func(s *State) {
		s.Notice = ""
		s.Err = nil
	})
}

// Reset returns the panel to its initial state, used when the session ends.
func (p *Panel) Reset() {
	p.update(func(s *State) { *s = State{Tab: TabFriends} })
}

// DiscoverEntries annotates the discover list with each user's relation to me.
func (p *Panel) DiscoverEntries(me int64) []Entry {
	s := p.State()

	entries := make([]Entry, 0, len(s.Discover))
	for _, u := range s.Discover {
		entries = append(entries, Entry{User: u, Relation: relationOf(s, u.ID, me)})
	}
	return entries
}

// relationOf decides the relation of userID to me. Friendship wins over a pending request,
// which wins over an incoming one.
func relationOf(s State, userID, me int64) Relation {
	switch {
	case userID == me:
		return RelationSelf
	case slices.ContainsFunc(s.Friends, func(f user.User) bool { return f.ID == userID }):
		return RelationFriend
	case slices.ContainsFunc(s.Outgoing, func(r Request) bool { return r.UserAID == userID || r.UserBID == userID }):
		return RelationPending
	case slices.ContainsFunc(s.Incoming, func(r Request) bool { return r.Requester.ID == userID }):
		return RelationIncoming
	default:
		return RelationNone
	}
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
