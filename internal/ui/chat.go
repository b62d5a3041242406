package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatterm/internal/app/chat"
	"chatterm/internal/app/events"
	"chatterm/internal/pkg/errs"
)

// visibleConversations is the sidebar list under the current search filter.
func (m Model) visibleConversations() []chat.Conversation {
	return m.deps.Store.Conversations(m.search.Value())
}

// syncWithStore refreshes everything derived from the store: the cursor bound and the
// message viewport. The viewport stays pinned to the bottom unless the user scrolled up.
func (m *Model) syncWithStore() {
	m.cursor = clamp(m.cursor, len(m.visibleConversations()))

	atBottom := m.viewport.AtBottom() || m.viewport.TotalLineCount() <= m.viewport.Height
	m.viewport.SetContent(m.renderMessages(m.viewport.Width))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.search.Blur()
	m.composer.Blur()
	switch f {
	case focusSearch:
		m.search.Focus()
	case focusComposer:
		m.composer.Focus()
	}
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+f":
		return m.openFriends()

	case "ctrl+r":
		if m.conn != events.Disconnected || m.reconnecting {
			return m, nil
		}
		m.reconnecting = true
		conn, ctx := m.deps.Connection, m.ctx
		return m, func() tea.Msg { return reconnectDoneMsg{err: conn.Reconnect(ctx)} }

	case "ctrl+u":
		cmd := m.fetchConversations()
		return m, cmd

	case "ctrl+l":
		if m.loggingOut {
			return m, nil
		}
		m.loggingOut = true
		sessions, ctx := m.deps.Sessions, m.ctx
		return m, func() tea.Msg { return logoutDoneMsg{err: sessions.Logout(ctx)} }

	case "esc":
		switch {
		case m.banner != nil:
			m.banner = nil
		case m.focus == focusSearch:
			m.search.Reset()
			m.setFocus(focusList)
			m.syncWithStore()
		case m.focus == focusComposer:
			m.setFocus(focusList)
		}
		return m, nil

	case "tab":
		next := focusList
		switch m.focus {
		case focusList:
			next = focusSearch
		case focusSearch:
			if m.deps.Store.ActiveID() != 0 {
				next = focusComposer
			}
		}
		m.setFocus(next)
		return m, nil
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusComposer:
		return m.handleComposerKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.visibleConversations()

	switch msg.String() {
	case "up", "k":
		m.cursor = clamp(m.cursor-1, len(list))
	case "down", "j":
		m.cursor = clamp(m.cursor+1, len(list))
	case "/":
		m.setFocus(focusSearch)
	case "enter":
		if len(list) == 0 {
			return m, nil
		}
		cmd := m.selectConversation(list[m.cursor].ID)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "down":
		m.setFocus(focusList)
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.cursor = 0
		m.syncWithStore()
	}
	return m, cmd
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.send()
		return m, nil
	case "up":
		m.viewport.LineUp(1)
		return m, nil
	case "down":
		m.viewport.LineDown(1)
		return m, nil
	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil
	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	}

	before := m.composer.Value()
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	if value := m.composer.Value(); value != before {
		m.deps.Composer.Keystroke(m.deps.Store.ActiveID(), value)
	}
	return m, cmd
}

// selectConversation makes id the active conversation and loads its messages.
func (m *Model) selectConversation(id int64) tea.Cmd {
	prev := m.deps.Store.ActiveID()
	if prev != 0 && prev != id {
		m.deps.Composer.Keystroke(prev, "")
	}

	m.deps.Store.SetActiveConversation(id)
	m.composer.Reset()
	m.composeErr = ""
	m.setFocus(focusComposer)
	m.syncWithStore()
	m.viewport.GotoBottom()

	return m.fetchMessages(id)
}

// send submits the composer. Invalid input stays in the composer; anything else clears it,
// since the message is already shown optimistically.
func (m *Model) send() {
	_, err := m.deps.Composer.Send(m.deps.Store.ActiveID(), m.composer.Value())
	if err != nil && errs.As(err).Kind == errs.KindValidation {
		m.composeErr = userMessage(err)
		return
	}

	m.composer.Reset()
	m.composeErr = ""
	if err != nil {
		m.composeErr = "Not delivered: " + userMessage(err)
	}
	m.syncWithStore()
	m.viewport.GotoBottom()
}

func (m Model) chatView() string {
	s := m.styles
	bodyHeight := m.height - 2

	var top string
	if m.banner != nil {
		top = s.Banner.Width(m.width).Render(m.banner.Message+"  (esc to dismiss)") + "\n"
		bodyHeight--
	}

	sidebar := s.Sidebar.Width(sidebarWidth).Height(bodyHeight - 2).Render(m.sidebarView(bodyHeight - 2))
	window := s.Window.Width(max(m.width-sidebarWidth-4, 20)).Height(bodyHeight - 2).Render(m.windowView())

	help := s.Muted.Render("tab: focus • enter: open/send • ctrl+f: friends • ctrl+u: refresh • ctrl+r: reconnect • ctrl+l: sign out • ctrl+c: quit")
	return top + lipgloss.JoinHorizontal(lipgloss.Top, sidebar, window) + "\n" + help
}

func (m Model) connView() string {
	s := m.styles
	switch {
	case m.conn == events.Connected:
		return s.Online.Render("● live")
	case m.conn == events.Connecting || m.reconnecting:
		return s.Typing.Render("◌ connecting")
	default:
		return s.Offline.Render("○ offline (ctrl+r)")
	}
}

func (m Model) sidebarView(height int) string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render(fmt.Sprintf("[%s] %s", m.me.Initials(), m.me.Username)))
	b.WriteString("\n" + m.connView() + "\n")
	b.WriteString(m.search.View() + "\n\n")

	list := m.visibleConversations()
	switch {
	case m.deps.Store.Status() == chat.StatusLoading && len(list) == 0:
		b.WriteString(s.Muted.Render("Loading conversations..."))
		return b.String()
	case m.deps.Store.Status() == chat.StatusFailed && len(list) == 0:
		b.WriteString(s.Error.Render(userMessage(m.deps.Store.Err())))
		return b.String()
	case len(list) == 0 && m.search.Value() != "":
		b.WriteString(s.Muted.Render("No matches"))
		return b.String()
	case len(list) == 0:
		b.WriteString(s.Muted.Render("No conversations yet"))
		return b.String()
	}

	visible := max((height-5)/2, 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}

	activeID := m.deps.Store.ActiveID()
	now := time.Now()
	inner := sidebarWidth - 4

	for i := start; i < len(list) && i < start+visible; i++ {
		c := list[i]

		dot := s.Offline.Render("○")
		if c.Participant.IsOnline {
			dot = s.Online.Render("●")
		}
		name := c.Participant.Username
		if c.ID == activeID {
			name += " *"
		}
		stamp := ""
		if c.LastMessage != nil {
			stamp = clockTime(c.LastMessage.CreatedAt, now)
		}
		gap := max(inner-lipgloss.Width(name)-lipgloss.Width(stamp)-2, 1)
		line := dot + " " + name + strings.Repeat(" ", gap) + s.Muted.Render(stamp)
		sub := "  " + s.Muted.Render(truncate(preview(c, m.me.ID), inner-2))

		item := line + "\n" + sub
		if i == m.cursor && m.focus == focusList {
			b.WriteString(s.Selected.Render(item) + "\n")
		} else {
			b.WriteString(s.Item.Render(item) + "\n")
		}
	}

	return b.String()
}

func (m Model) windowView() string {
	s := m.styles

	conv, ok := m.deps.Store.ActiveConversation()
	if !ok {
		return s.Muted.Padding(1, 2).Render("Select a conversation to start chatting.")
	}

	status := s.Offline.Render("offline")
	if conv.Participant.IsOnline {
		status = s.Online.Render("online")
	}
	header := conv.Participant.Username + "  " + status
	if m.deps.Store.ActiveTyping() {
		header += "  " + s.Typing.Render("typing...")
	}

	var b strings.Builder
	b.WriteString(s.Header.Width(m.viewport.Width).Render(header) + "\n")

	if ce := m.deps.Store.MessagesErr(conv.ID); ce != nil && len(m.deps.Store.ActiveMessages()) == 0 {
		b.WriteString(s.Error.Render(ce.Message) + "\n")
	}

	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(m.composer.View())
	if m.composeErr != "" {
		b.WriteString("\n" + s.Error.Render(m.composeErr))
	}
	return b.String()
}

// renderMessages lays out the active conversation log.
func (m Model) renderMessages(width int) string {
	if m.deps.Store.ActiveID() == 0 {
		return ""
	}
	s := m.styles
	msgs := m.deps.Store.ActiveMessages()
	if len(msgs) == 0 {
		return s.Muted.Render("No messages yet. Say hello!")
	}

	peer, _ := m.deps.Store.Participant(m.deps.Store.ActiveID())
	now := time.Now()
	wrap := lipgloss.NewStyle().Width(max(width, 10))

	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		name, style := peer.Username, s.Other
		if msg.SenderID == m.me.ID {
			name, style = "You", s.Own
		}

		line := s.Muted.Render(clockTime(msg.CreatedAt, now)) + " " + style.Render(name+":") + " " + msg.Body
		if msg.Pending() {
			line += " " + s.Pending.Render("(sending)")
		}
		lines = append(lines, wrap.Render(line))
	}
	return strings.Join(lines, "\n")
}
