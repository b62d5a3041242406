package session

import (
	"context"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"chatterm/internal/pkg/auth/jwt"
	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/logx"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.]{3,32}$`)

const (
	minPasswordLen = 6
	maxPasswordLen = 50
)

// Authenticator exchanges credentials for a session. The API client implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Register(ctx context.Context, username, email, password string) (Session, error)
}

// ChangeKind tells whether a session started or ended.
type ChangeKind int

const (
	// Created is published after a successful login, registration or restore.
	Created ChangeKind = iota

	// Destroyed is published after logout or when the token is lost.
	Destroyed
)

func (k ChangeKind) String() string {
	if k == Created {
		return "created"
	}
	return "destroyed"
}

// Change is delivered to watchers on every session transition.
type Change struct {
	Kind    ChangeKind
	Session Session

	// Reason is set when a session was destroyed because of an error (e.g. expired token).
	Reason error
}

// Manager owns the current session and its lifecycle.
type Manager struct {
	store *Store
	auth  Authenticator
	now   func() time.Time

	// mu protects current and watchers.
	mu       sync.RWMutex
	current  *Session
	watchers map[int]func(Change)
	nextID   int

	logger zerolog.Logger
}

// NewManager constructs a Manager backed by store and auth.
func NewManager(store *Store, auth Authenticator) *Manager {
	return &Manager{
		store:    store,
		auth:     auth,
		now:      time.Now,
		watchers: make(map[int]func(Change)),
		logger:   logx.Component("session"),
	}
}

// Current returns the active session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Token implements jwt.TokenSource by reading the durable store.
func (m *Manager) Token(ctx context.Context) (string, error) {
	return m.store.Token(ctx)
}

// Watch registers fn to be called, in order and outside any lock, on every session change.
// The returned function unregisters it.
func (m *Manager) Watch(fn func(Change)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

// Restore loads the persisted session at startup. A stored token that is already
// expired is discarded and reported as ErrSessionExpired.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return Session{}, err
	}

	if jwt.IsExpired(sess.Token, m.now()) {
		m.logger.Info().Int64("user_id", sess.User.ID).Msg("Stored session token expired, discarding.")
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			return Session{}, clearErr
		}
		return Session{}, errs.NewError(errs.ErrSessionExpired)
	}

	m.activate(sess)
	return sess, nil
}

// Login validates the form, authenticates, persists the session and activates it.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)

	if err := validateEmail(email); err != nil {
		return Session{}, err
	}
	if password == "" {
		return Session{}, errs.NewError(errs.ErrInvalidPassword)
	}

	sess, err := m.auth.Login(ctx, email, password)
	if err != nil {
		if errs.Is(err, errs.ErrUnauthorized) {
			ce := errs.As(err)
			return Session{}, errs.NewError(errs.ErrInvalidCredentials).WithResponse(ce.Status, ce.Body, ce.Message)
		}
		return Session{}, err
	}

	return m.establish(ctx, sess)
}

// Register validates the form, creates the account, persists the session and activates it.
func (m *Manager) Register(ctx context.Context, username, email, password string) (Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if !usernameRegex.MatchString(username) {
		return Session{}, errs.NewError(errs.ErrInvalidUsername)
	}
	if err := validateEmail(email); err != nil {
		return Session{}, err
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return Session{}, errs.NewError(errs.ErrInvalidPassword)
	}

	sess, err := m.auth.Register(ctx, username, email, password)
	if err != nil {
		return Session{}, err
	}

	return m.establish(ctx, sess)
}

// Logout clears the persisted session and notifies watchers.
func (m *Manager) Logout(ctx context.Context) error {
	return m.end(ctx, nil)
}

// Invalidate ends the session because the token was lost or rejected (for example a 401).
func (m *Manager) Invalidate(ctx context.Context, reason error) error {
	return m.end(ctx, reason)
}

func (m *Manager) establish(ctx context.Context, sess Session) (Session, error) {
	if sess.Token == "" {
		return Session{}, errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return Session{}, err
	}

	m.activate(sess)
	return sess, nil
}

func (m *Manager) activate(sess Session) {
	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()

	m.logger.Info().Int64("user_id", sess.User.ID).Str("username", sess.User.Username).Msg("Session started.")
	m.publish(Change{Kind: Created, Session: sess})
}

func (m *Manager) end(ctx context.Context, reason error) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()

	if prev == nil {
		return nil
	}

	event := m.logger.Info().Int64("user_id", prev.User.ID)
	if reason != nil {
		event = event.AnErr("reason", reason)
	}
	event.Msg("Session ended.")

	m.publish(Change{Kind: Destroyed, Session: *prev, Reason: reason})
	return nil
}

func (m *Manager) publish(change Change) {
	m.mu.RLock()
	ids := make([]int, 0, len(m.watchers))
	for id := range m.watchers {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	// Registration order.
	slices.Sort(ids)

	for _, id := range ids {
		m.mu.RLock()
		fn, ok := m.watchers[id]
		m.mu.RUnlock()
		if ok {
			fn(change)
		}
	}
}

func validateEmail(email string) error {
	if email == "" {
		return errs.NewError(errs.ErrInvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errs.NewError(errs.ErrInvalidEmail)
	}
	return nil
}
