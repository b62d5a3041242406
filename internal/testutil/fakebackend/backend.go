/*
Package fakebackend provides an in-process chat backend for tests.

It serves the REST endpoints and the push channel the client talks to, keeps its data in
memory, signs real tokens, and records what the client sent so tests can assert on it.
*/
package fakebackend

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chatterm/internal/app/chat"
	"chatterm/internal/app/friends"
	"chatterm/internal/app/user"
	"chatterm/internal/pkg/auth/jwt"
)

// Secret signs the tokens the backend issues.
const Secret = "fake-backend-secret"

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = time.Hour

// Frame is an envelope received from or pushed to a client.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Call is one recorded REST request.
type Call struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	Body          []byte
}

// Failure is a canned error response.
type Failure struct {
	Status int
	Body   string
}

type account struct {
	user     user.User
	password string
}

// Backend is the fake server. All exported methods are safe for concurrent use.
type Backend struct {
	srv *httptest.Server

	mu            sync.Mutex
	accounts      []account
	conversations map[int64][]chat.Conversation
	messages      map[int64][]chat.Message
	friendsOf     map[int64][]user.User
	requests      []friends.Request
	nextID        int64
	calls         []Call
	failures      map[string]Failure
	peers         map[int64]*peer

	// Inbound receives every frame clients send over the push channel.
	Inbound chan Frame

	ackMessages bool
}

// New starts a Backend that is shut down when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		conversations: make(map[int64][]chat.Conversation),
		messages:      make(map[int64][]chat.Message),
		friendsOf:     make(map[int64][]user.User),
		failures:      make(map[string]Failure),
		peers:         make(map[int64]*peer),
		nextID:        1000,
		Inbound:       make(chan Frame, 64),
	}

	b.srv = httptest.NewServer(b.router())
	t.Cleanup(b.Close)

	return b
}

// Close disconnects all push clients and stops the server.
func (b *Backend) Close() {
	b.mu.Lock()
	peers := make([]*peer, 0, len(b.peers))
	for _, p := range b.peers {
		peers = append(peers, p)
	}
	b.peers = make(map[int64]*peer)
	b.mu.Unlock()

	for _, p := range peers {
		p.close()
	}
	b.srv.Close()
}

// APIURL is the REST base URL.
func (b *Backend) APIURL() string {
	return b.srv.URL + "/api"
}

// PushURL is the push channel URL.
func (b *Backend) PushURL() string {
	return "ws" + strings.TrimPrefix(b.srv.URL, "http") + "/ws"
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

// AddUser creates an account and returns it.
func (b *Backend) AddUser(username, email, password string) user.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(username, email, password)
}

func (b *Backend) addUserLocked(username, email, password string) user.User {
	u := user.User{ID: b.id(), Username: username, Email: email}
	b.accounts = append(b.accounts, account{user: u, password: password})
	return u
}

// Token issues a token for u, valid for TokenTTL.
func (b *Backend) Token(u user.User) string {
	return b.tokenFor(u, TokenTTL)
}

// ExpiredToken issues a token for u that has already expired.
func (b *Backend) ExpiredToken(u user.User) string {
	return b.tokenFor(u, -time.Hour)
}

func (b *Backend) tokenFor(u user.User, ttl time.Duration) string {
	token, err := jwt.GenerateToken(&jwt.Payload{UserID: u.ID, Username: u.Username}, Secret, ttl)
	if err != nil {
		panic(err)
	}
	return token
}

// AddConversation creates a conversation between owner and peer, as seen by owner.
func (b *Backend) AddConversation(owner, peer user.User, msgs ...chat.Message) chat.Conversation {
	b.mu.Lock()
	defer b.mu.Unlock()

	conv := chat.Conversation{
		ID:          b.id(),
		Participant: user.Participant{ID: peer.ID, Username: peer.Username, Avatar: peer.Avatar},
	}
	for i := range msgs {
		if msgs[i].ID == 0 {
			msgs[i].ID = b.id()
		}
		msgs[i].ConversationID = conv.ID
	}
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		conv.LastMessage = &last
	}

	b.conversations[owner.ID] = append(b.conversations[owner.ID], conv)
	b.messages[conv.ID] = msgs
	return conv
}

// AddFriends makes a and b friends.
func (b *Backend) AddFriends(x, y user.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.friendsOf[x.ID] = append(b.friendsOf[x.ID], y)
	b.friendsOf[y.ID] = append(b.friendsOf[y.ID], x)
}

// AddRequest records a pending friend request from one user to another.
func (b *Backend) AddRequest(from, to user.User) friends.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addRequestLocked(from, to)
}

func (b *Backend) addRequestLocked(from, to user.User) friends.Request {
	req := friends.Request{
		ID:        b.id(),
		UserAID:   from.ID,
		UserBID:   to.ID,
		UserA:     from,
		UserB:     to,
		Requester: from,
	}
	b.requests = append(b.requests, req)
	return req
}

// Fail makes every request to method and path answer with status and body until cleared
// with a zero status.
func (b *Backend) Fail(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := method + " " + path
	if status == 0 {
		delete(b.failures, key)
		return
	}
	b.failures[key] = Failure{Status: status, Body: body}
}

// AckMessages makes the backend answer every message:send with message:ack.
func (b *Backend) AckMessages(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ackMessages = enabled
}

// Calls returns the recorded REST requests.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// Friends returns the friends of u.
func (b *Backend) Friends(u user.User) []user.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]user.User, len(b.friendsOf[u.ID]))
	copy(out, b.friendsOf[u.ID])
	return out
}

// Connected reports whether u has an open push connection.
func (b *Backend) Connected(u user.User) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.peers[u.ID]
	return ok
}
