package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"chatterm/internal/app/events"
	"chatterm/internal/app/session"
	"chatterm/internal/pkg/logx"
)

// bridgeBuffer is the number of external notifications held until the program reads them.
const bridgeBuffer = 64

// storeChangedMsg reports that the chat store changed.
type storeChangedMsg struct{}

// connStateMsg reports a push channel state change.
type connStateMsg struct {
	state events.State
	err   error
}

// alertMsg carries an alert that must be acknowledged.
type alertMsg struct {
	alert events.Alert
}

// sessionMsg carries a session lifecycle change.
type sessionMsg struct {
	change session.Change
}

// Bridge carries notifications from other goroutines (push channel, session watchers)
// into the bubbletea update loop. Publishing never blocks; Run forwards to the program.
type Bridge struct {
	msgs chan tea.Msg
}

// NewBridge creates a Bridge.
func NewBridge() *Bridge {
	return &Bridge{msgs: make(chan tea.Msg, bridgeBuffer)}
}

func (b *Bridge) publish(msg tea.Msg) {
	select {
	case b.msgs <- msg:
	default:
		logx.Warn("UI bridge full, dropping notification", "msg", msg)
	}
}

// ConnState publishes a push channel state change. It matches events.StateFunc.
func (b *Bridge) ConnState(state events.State, err error) {
	b.publish(connStateMsg{state: state, err: err})
}

// Alert publishes an alert. It matches the alert callback of events.NewRouter.
func (b *Bridge) Alert(a events.Alert) {
	b.publish(alertMsg{alert: a})
}

// Session publishes a session change. It matches the callback of session.Manager.Watch.
func (b *Bridge) Session(change session.Change) {
	b.publish(sessionMsg{change: change})
}

// Run forwards published notifications to send (normally tea.Program.Send) until ctx is done.
func (b *Bridge) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.msgs:
			send(msg)
		}
	}
}

// waitForStoreChange waits for the next store notification. A closed channel ends the loop.
func waitForStoreChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}
