package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatterm/internal/app/chat"
	"chatterm/internal/app/events"
	"chatterm/internal/app/friends"
	"chatterm/internal/app/session"
	"chatterm/internal/app/user"
	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/logx"
)

// Sessions is the part of session.Manager the UI drives.
type Sessions interface {
	Current() (session.Session, bool)
	Login(ctx context.Context, email, password string) (session.Session, error)
	Register(ctx context.Context, username, email, password string) (session.Session, error)
	Logout(ctx context.Context) error
	Invalidate(ctx context.Context, reason error) error
}

// Fetcher loads conversations and messages into the store.
type Fetcher interface {
	FetchConversations(ctx context.Context) error
	FetchMessages(ctx context.Context, conversationID int64) error
}

// Composer sends messages and typing notifications.
type Composer interface {
	Send(conversationID int64, body string) (chat.Message, error)
	Keystroke(conversationID int64, value string)
}

// Reconnector reopens the push channel.
type Reconnector interface {
	Reconnect(ctx context.Context) error
}

// Deps are the components the UI reads from and acts on.
type Deps struct {
	Sessions   Sessions
	Store      *chat.Store
	Fetcher    Fetcher
	Composer   Composer
	Friends    *friends.Panel
	Connection Reconnector
}

type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenChat
)

type focusArea int

const (
	focusList focusArea = iota
	focusSearch
	focusComposer
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	sidebarWidth  = 34
)

// Model is the root bubbletea model.
type Model struct {
	ctx    context.Context
	deps   Deps
	styles Styles

	storeCh     <-chan struct{}
	unsubscribe func()

	width  int
	height int

	screen screen
	me     user.User

	login    authForm
	register authForm

	search   textinput.Model
	composer textinput.Model
	viewport viewport.Model
	focus    focusArea
	cursor   int

	composeErr string
	banner     *errs.CustomError
	conn       events.State

	fetching     bool
	reconnecting bool
	loggingOut   bool

	friends friendsOverlay
	alerts  []events.Alert
}

// New creates the root model. It subscribes to the store right away; Close releases the
// subscription. If a session is active the chat screen is shown first.
func New(ctx context.Context, deps Deps) Model {
	ch, unsubscribe := deps.Store.Subscribe()

	search := textinput.New()
	search.Placeholder = "Search"
	search.Prompt = "/ "
	search.CharLimit = 64

	composer := textinput.New()
	composer.Placeholder = "Type a message"
	composer.Prompt = "> "
	composer.CharLimit = chat.MaxContentBytes

	m := Model{
		ctx:         ctx,
		deps:        deps,
		styles:      DefaultStyles(),
		storeCh:     ch,
		unsubscribe: unsubscribe,
		width:       defaultWidth,
		height:      defaultHeight,
		login:       newLoginForm(),
		register:    newRegisterForm(),
		search:      search,
		composer:    composer,
		viewport:    viewport.New(defaultWidth-sidebarWidth-4, defaultHeight-8),
		friends:     newFriendsOverlay(),
	}

	if sess, ok := deps.Sessions.Current(); ok {
		m.screen = screenChat
		m.me = sess.User
		m.fetching = true
	}
	m.resize()

	return m
}

// Close releases the store subscription.
func (m Model) Close() {
	m.unsubscribe()
}

// Init starts the listeners and, for a restored session, the first conversation fetch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForStoreChange(m.storeCh), textinput.Blink}
	if m.screen == screenChat {
		cmds = append(cmds, m.loadConversations())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and user input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case storeChangedMsg:
		m.syncWithStore()
		return m, waitForStoreChange(m.storeCh)

	case connStateMsg:
		cmd := m.handleConnState(msg)
		return m, cmd

	case alertMsg:
		m.alerts = append(m.alerts, msg.alert)
		return m, nil

	case sessionMsg:
		var cmd tea.Cmd
		switch msg.change.Kind {
		case session.Created:
			cmd = m.enterChat(msg.change.Session)
		case session.Destroyed:
			m.leaveChat(msg.change.Reason)
		}
		return m, cmd

	case sessionEndedMsg:
		m.leaveChat(msg.reason)
		return m, nil

	case authDoneMsg:
		return m.handleAuthDone(msg)

	case conversationsLoadedMsg:
		m.fetching = false
		cmd := m.report(msg.err)
		return m, cmd

	case messagesLoadedMsg:
		if msg.conversationID != m.deps.Store.ActiveID() {
			cmd := m.unauthorized(msg.err)
			return m, cmd
		}
		cmd := m.report(msg.err)
		return m, cmd

	case friendsDoneMsg:
		m.friends.busy = false
		m.friends.cursor = clamp(m.friends.cursor, m.friendRowCount())
		cmd := m.unauthorized(msg.err)
		return m, cmd

	case reconnectDoneMsg:
		m.reconnecting = false
		cmd := m.report(msg.err)
		return m, cmd

	case logoutDoneMsg:
		m.loggingOut = false
		if msg.err != nil {
			cmd := m.report(msg.err)
			return m, cmd
		}
		m.leaveChat(nil)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

// updateFocused forwards non-key messages (cursor blink) to the focused input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
	case screenRegister:
		m.register.inputs[m.register.focus], cmd = m.register.inputs[m.register.focus].Update(msg)
	case screenChat:
		switch {
		case m.friends.open:
			m.friends.query, cmd = m.friends.query.Update(msg)
		case m.focus == focusSearch:
			m.search, cmd = m.search.Update(msg)
		case m.focus == focusComposer:
			m.composer, cmd = m.composer.Update(msg)
		}
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// An alert blocks every other key until it is acknowledged.
	if len(m.alerts) > 0 {
		switch msg.String() {
		case "enter", "esc":
			m.alerts = m.alerts[1:]
		}
		return m, nil
	}

	switch m.screen {
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenRegister:
		return m.handleRegisterKey(msg)
	default:
		if m.friends.open {
			return m.handleFriendsKey(msg)
		}
		return m.handleChatKey(msg)
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+n" && !m.login.loading {
		m.screen = screenRegister
		m.register.reset()
		return m, textinput.Blink
	}

	submitted, cmd := m.login.update(msg)
	if !submitted {
		return m, cmd
	}

	v := m.login.values()
	sessions, ctx := m.deps.Sessions, m.ctx
	return m, func() tea.Msg {
		sess, err := sessions.Login(ctx, v[0], v[1])
		return authDoneMsg{session: sess, err: err}
	}
}

func (m Model) handleRegisterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if (msg.String() == "esc" || msg.String() == "ctrl+n") && !m.register.loading {
		m.screen = screenLogin
		m.login.reset()
		return m, textinput.Blink
	}

	submitted, cmd := m.register.update(msg)
	if !submitted {
		return m, cmd
	}

	v := m.register.values()
	sessions, ctx := m.deps.Sessions, m.ctx
	return m, func() tea.Msg {
		sess, err := sessions.Register(ctx, v[0], v[1], v[2])
		return authDoneMsg{session: sess, err: err, register: true}
	}
}

func (m Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	form := &m.login
	if msg.register {
		form = &m.register
	}
	form.loading = false

	if msg.err != nil {
		form.err = userMessage(msg.err)
		return m, nil
	}

	cmd := m.enterChat(msg.session)
	return m, cmd
}

// enterChat switches to the chat screen for sess. Login results and session notifications
// both arrive here; the second one is a no-op.
func (m *Model) enterChat(sess session.Session) tea.Cmd {
	if m.screen == screenChat && m.me.ID == sess.User.ID {
		return nil
	}

	m.screen = screenChat
	m.me = sess.User
	m.login.reset()
	m.register.reset()
	m.search.Reset()
	m.composer.Reset()
	m.composeErr = ""
	m.banner = nil
	m.cursor = 0
	m.setFocus(focusList)
	m.syncWithStore()

	logx.Debug("Chat screen opened", "user_id", sess.User.ID)
	return m.fetchConversations()
}

// leaveChat returns to the login screen. The store is reset by the push channel binder.
func (m *Model) leaveChat(reason error) {
	if m.screen != screenChat {
		return
	}

	m.screen = screenLogin
	m.me = user.User{}
	m.friends = newFriendsOverlay()
	m.deps.Friends.Reset()
	m.search.Reset()
	m.composer.Reset()
	m.composer.Blur()
	m.composeErr = ""
	m.banner = nil
	m.fetching = false
	m.login.reset()

	if reason != nil {
		m.login.err = userMessage(reason)
	}
}

func (m *Model) handleConnState(msg connStateMsg) tea.Cmd {
	m.conn = msg.state
	if msg.state != events.Connecting {
		m.reconnecting = false
	}

	if msg.err == nil {
		return nil
	}
	if errs.Is(msg.err, errs.ErrUnauthorized) {
		return m.invalidate(msg.err)
	}
	if m.screen == screenChat {
		m.banner = errs.As(msg.err)
	}
	return nil
}

// report shows err according to its kind and ends the session on a rejected token.
func (m *Model) report(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	if cmd := m.unauthorized(err); cmd != nil {
		return cmd
	}

	ce := errs.As(err)
	if ce.Kind == errs.KindSilent || m.screen != screenChat {
		return nil
	}
	m.banner = ce
	return nil
}

func (m *Model) unauthorized(err error) tea.Cmd {
	if err == nil || !errs.Is(err, errs.ErrUnauthorized) || m.screen != screenChat {
		return nil
	}
	return m.invalidate(err)
}

func (m *Model) invalidate(reason error) tea.Cmd {
	sessions, ctx := m.deps.Sessions, m.ctx
	return func() tea.Msg {
		if err := sessions.Invalidate(ctx, reason); err != nil {
			logx.Error(err, "Failed to end rejected session")
		}
		return sessionEndedMsg{reason: reason}
	}
}

func (m *Model) fetchConversations() tea.Cmd {
	if m.fetching {
		return nil
	}
	m.fetching = true
	return m.loadConversations()
}

func (m Model) loadConversations() tea.Cmd {
	fetcher, ctx := m.deps.Fetcher, m.ctx
	return func() tea.Msg {
		return conversationsLoadedMsg{err: fetcher.FetchConversations(ctx)}
	}
}

func (m Model) fetchMessages(conversationID int64) tea.Cmd {
	fetcher, ctx := m.deps.Fetcher, m.ctx
	return func() tea.Msg {
		return messagesLoadedMsg{conversationID: conversationID, err: fetcher.FetchMessages(ctx, conversationID)}
	}
}

func (m *Model) resize() {
	m.viewport.Width = max(m.width-sidebarWidth-6, 10)
	m.viewport.Height = max(m.height-10, 3)
	m.composer.Width = max(m.viewport.Width-4, 10)
	m.search.Width = sidebarWidth - 6
	m.friends.query.Width = max(m.width/2, 20)
	m.syncWithStore()
}

// View renders the current screen, with a pending alert on top.
func (m Model) View() string {
	if len(m.alerts) > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.alertView())
	}

	switch m.screen {
	case screenLogin:
		return m.centered(m.login.view(m.styles, "enter: submit • tab: next field • ctrl+n: create an account • ctrl+c: quit"))
	case screenRegister:
		return m.centered(m.register.view(m.styles, "enter: submit • tab: next field • esc: back to sign in • ctrl+c: quit"))
	}

	if m.friends.open {
		return m.centered(m.friendsView())
	}
	return m.chatView()
}

func (m Model) centered(s string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}
