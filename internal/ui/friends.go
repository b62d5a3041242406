package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"chatterm/internal/app/chat"
	"chatterm/internal/app/friends"
)

// friendsOverlay is the view state of the friend panel; the data lives in friends.Panel.
type friendsOverlay struct {
	open   bool
	tab    friends.Tab
	cursor int

	// query is the discover search input; inList moves the focus from it to the results.
	query  textinput.Model
	inList bool

	// busy is true while a panel action is outstanding; confirm holds the friend id
	// awaiting a removal confirmation.
	busy    bool
	confirm int64
	note    string
}

func newFriendsOverlay() friendsOverlay {
	q := textinput.New()
	q.Placeholder = "Search users"
	q.Prompt = "? "
	q.CharLimit = 64
	q.Width = 40
	return friendsOverlay{tab: friends.TabFriends, query: q}
}

// friendsAction runs fn in the background unless another action is outstanding.
func (m *Model) friendsAction(fn func(ctx context.Context, p *friends.Panel) error) tea.Cmd {
	if m.friends.busy {
		return nil
	}
	m.friends.busy = true
	m.friends.note = ""
	panel, ctx := m.deps.Friends, m.ctx
	return func() tea.Msg {
		return friendsDoneMsg{err: fn(ctx, panel)}
	}
}

func (m Model) openFriends() (tea.Model, tea.Cmd) {
	m.friends.open = true
	m.friends.cursor = 0
	m.friends.confirm = 0
	m.friends.inList = false
	m.search.Blur()
	m.composer.Blur()
	cmd := m.switchTab(m.friends.tab)
	return m, cmd
}

func (m *Model) closeFriends() {
	m.friends.open = false
	m.friends.confirm = 0
	m.friends.note = ""
	m.friends.query.Blur()
	m.deps.Friends.Dismiss()
	m.setFocus(m.focus)
}

func (m *Model) switchTab(tab friends.Tab) tea.Cmd {
	if m.friends.busy {
		return nil
	}
	m.friends.tab = tab
	m.friends.cursor = 0
	m.friends.confirm = 0
	m.friends.inList = false
	if tab == friends.TabDiscover {
		m.friends.query.Focus()
	} else {
		m.friends.query.Blur()
	}
	return m.friendsAction(func(ctx context.Context, p *friends.Panel) error {
		return p.SwitchTab(ctx, tab)
	})
}

// friendRowCount is the number of selectable rows of the current tab.
func (m Model) friendRowCount() int {
	s := m.deps.Friends.State()
	switch m.friends.tab {
	case friends.TabRequests:
		return len(s.Incoming) + len(s.Outgoing)
	case friends.TabDiscover:
		return len(s.Discover)
	default:
		return len(s.Friends)
	}
}

func (m Model) handleFriendsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.friends.confirm != 0 {
		id := m.friends.confirm
		m.friends.confirm = 0
		if key == "y" {
			cmd := m.friendsAction(func(ctx context.Context, p *friends.Panel) error {
				return p.Remove(ctx, id)
			})
			return m, cmd
		}
		return m, nil
	}

	switch key {
	case "esc":
		if m.friends.tab == friends.TabDiscover && m.friends.inList {
			m.friends.inList = false
			m.friends.query.Focus()
			return m, nil
		}
		m.closeFriends()
		return m, nil
	case "ctrl+f":
		m.closeFriends()
		return m, nil
	case "tab", "shift+tab":
		i := slices.Index(friends.Tabs, m.friends.tab)
		if key == "tab" {
			i++
		} else {
			i += len(friends.Tabs) - 1
		}
		cmd := m.switchTab(friends.Tabs[i%len(friends.Tabs)])
		return m, cmd
	}

	switch m.friends.tab {
	case friends.TabRequests:
		return m.handleRequestsKey(key)
	case friends.TabDiscover:
		return m.handleDiscoverKey(msg)
	default:
		return m.handleFriendListKey(key)
	}
}

// moveCursor handles up and down for the current tab.
func (m *Model) moveCursor(key string) bool {
	switch key {
	case "up", "k":
		m.friends.cursor = clamp(m.friends.cursor-1, m.friendRowCount())
		return true
	case "down", "j":
		m.friends.cursor = clamp(m.friends.cursor+1, m.friendRowCount())
		return true
	}
	return false
}

func (m Model) handleFriendListKey(key string) (tea.Model, tea.Cmd) {
	if m.moveCursor(key) {
		return m, nil
	}

	list := m.deps.Friends.State().Friends
	if len(list) == 0 {
		return m, nil
	}
	friend := list[clamp(m.friends.cursor, len(list))]

	switch key {
	case "x", "delete":
		if !m.friends.busy {
			m.friends.confirm = friend.ID
		}
	case "enter":
		if c, ok := conversationWith(m.deps.Store.Conversations(""), friend.ID); ok {
			m.closeFriends()
			cmd := m.selectConversation(c.ID)
			return m, cmd
		}
		m.friends.note = fmt.Sprintf("No conversation with %s yet.", friend.Username)
	}
	return m, nil
}

func (m Model) handleRequestsKey(key string) (tea.Model, tea.Cmd) {
	if m.moveCursor(key) {
		return m, nil
	}

	incoming := m.deps.Friends.State().Incoming
	if m.friends.cursor >= len(incoming) {
		return m, nil
	}
	id := incoming[m.friends.cursor].ID

	switch key {
	case "a", "enter":
		cmd := m.friendsAction(func(ctx context.Context, p *friends.Panel) error {
			return p.Accept(ctx, id)
		})
		return m, cmd
	case "d":
		cmd := m.friendsAction(func(ctx context.Context, p *friends.Panel) error {
			return p.Decline(ctx, id)
		})
		return m, cmd
	}
	return m, nil
}

func (m Model) handleDiscoverKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if !m.friends.inList {
		switch key {
		case "enter":
			query := m.friends.query.Value()
			cmd := m.friendsAction(func(ctx context.Context, p *friends.Panel) error {
				return p.Search(ctx, query)
			})
			return m, cmd
		case "down":
			if m.friendRowCount() > 0 {
				m.friends.inList = true
				m.friends.cursor = 0
				m.friends.query.Blur()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.friends.query, cmd = m.friends.query.Update(msg)
		return m, cmd
	}

	if (key == "up" || key == "k") && m.friends.cursor == 0 {
		m.friends.inList = false
		m.friends.query.Focus()
		return m, nil
	}
	if m.moveCursor(key) {
		return m, nil
	}

	if key != "enter" && key != "s" {
		return m, nil
	}

	entries := m.deps.Friends.DiscoverEntries(m.me.ID)
	if len(entries) == 0 {
		return m, nil
	}
	entry := entries[clamp(m.friends.cursor, len(entries))]

	switch entry.Relation {
	case friends.RelationNone:
		username := entry.User.Username
		cmd := m.friendsAction(func(ctx context.Context, p *friends.Panel) error {
			return p.SendRequest(ctx, username)
		})
		return m, cmd
	case friends.RelationIncoming:
		for _, req := range m.deps.Friends.State().Incoming {
			if req.Requester.ID == entry.User.ID {
				id := req.ID
				cmd := m.friendsAction(func(ctx context.Context, p *friends.Panel) error {
					return p.Accept(ctx, id)
				})
				return m, cmd
			}
		}
	}
	return m, nil
}

func (m Model) friendsView() string {
	s := m.styles
	state := m.deps.Friends.State()
	var b strings.Builder

	b.WriteString(s.Title.Render("Friends") + "\n\n")

	tabs := make([]string, 0, len(friends.Tabs))
	for _, tab := range friends.Tabs {
		label := strings.ToUpper(string(tab[:1])) + string(tab[1:])
		if tab == friends.TabRequests && len(state.Incoming) > 0 {
			label += fmt.Sprintf(" (%d)", len(state.Incoming))
		}
		if tab == m.friends.tab {
			tabs = append(tabs, s.TabActive.Render(label))
		} else {
			tabs = append(tabs, s.Tab.Render(label))
		}
	}
	b.WriteString(strings.Join(tabs, " ") + "\n\n")

	var rows []string
	var hint string
	switch m.friends.tab {
	case friends.TabRequests:
		for _, req := range state.Incoming {
			rows = append(rows, "← "+req.Requester.Username+s.Muted.Render("  wants to be friends"))
		}
		for _, req := range state.Outgoing {
			rows = append(rows, "→ "+friends.OutgoingTarget(req, m.me.ID).Username+s.Muted.Render("  pending"))
		}
		hint = "a/enter: accept • d: decline"
		if len(rows) == 0 {
			b.WriteString(s.Muted.Render("No pending requests.") + "\n")
		}

	case friends.TabDiscover:
		b.WriteString(m.friends.query.View() + "\n\n")
		for _, e := range m.deps.Friends.DiscoverEntries(m.me.ID) {
			row := e.User.Username
			if label := e.Relation.String(); label != "" {
				row += s.Muted.Render("  " + label)
			}
			rows = append(rows, row)
		}
		hint = "enter: search • down: results • enter/s on a result: add or accept"
		switch {
		case state.Loading:
			b.WriteString(s.Muted.Render("Searching...") + "\n")
		case len(rows) == 0:
			b.WriteString(s.Muted.Render("No users found.") + "\n")
		}

	default:
		for _, f := range state.Friends {
			rows = append(rows, "["+f.Initials()+"] "+f.Username)
		}
		hint = "enter: open conversation • x: remove"
		if len(rows) == 0 {
			b.WriteString(s.Muted.Render("No friends yet. Find people in Discover.") + "\n")
		}
	}

	listFocused := m.friends.tab != friends.TabDiscover || m.friends.inList
	for i, row := range rows {
		if listFocused && i == m.friends.cursor {
			b.WriteString(s.Selected.Render(row) + "\n")
		} else {
			b.WriteString(s.Item.Render(row) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.friends.confirm != 0:
		b.WriteString(s.Error.Render("Remove this friend? y to confirm, any other key to cancel") + "\n")
	case state.Err != nil:
		b.WriteString(s.Error.Render(state.Err.Message) + "\n")
	case state.Notice != "":
		b.WriteString(s.Notice.Render(state.Notice) + "\n")
	case m.friends.note != "":
		b.WriteString(s.Muted.Render(m.friends.note) + "\n")
	case m.friends.busy:
		b.WriteString(s.Muted.Render("Working...") + "\n")
	}

	b.WriteString(s.Muted.Render(hint + " • tab: next section • esc: close"))
	return s.Box.Width(max(m.width*2/3, 50)).Render(b.String())
}

// conversationWith returns the conversation whose peer is userID.
func conversationWith(list []chat.Conversation, userID int64) (chat.Conversation, bool) {
	for _, c := range list {
		if c.Participant.ID == userID {
			return c, true
		}
	}
	return chat.Conversation{}, false
}
