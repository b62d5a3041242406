package events

import (
	"context"

	"chatterm/internal/app/chat"
	"chatterm/internal/app/session"
	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/logx"
)

// Binder ties the Channel to the session lifecycle: a connection is opened when a session
// starts and closed, together with a Store reset, when it ends. It never reconnects on its
// own; Reconnect is the manual path.
type Binder struct {
	manager *session.Manager
	channel *Channel
	store   *chat.Store
	unwatch func()
}

// Bind starts watching manager. If a session is already active the channel is opened now.
func Bind(ctx context.Context, manager *session.Manager, channel *Channel, store *chat.Store) *Binder {
	b := &Binder{manager: manager, channel: channel, store: store}

	b.unwatch = manager.Watch(func(change session.Change) {
		switch change.Kind {
		case session.Created:
			b.open(ctx, change.Session.Token)
		case session.Destroyed:
			channel.Close()
			store.Reset()
		}
	})

	if sess, ok := manager.Current(); ok {
		b.open(ctx, sess.Token)
	}

	return b
}

func (b *Binder) open(ctx context.Context, token string) {
	if err := b.channel.Connect(ctx, token); err != nil {
		// The state callback already carries err to the UI.
		logx.Warn("Push channel unavailable for new session", "code", errs.As(err).Code)
	}
}

// Reconnect reopens the channel for the current session.
func (b *Binder) Reconnect(ctx context.Context) error {
	sess, ok := b.manager.Current()
	if !ok {
		return errs.NewError(errs.ErrNotLoggedIn)
	}
	return b.channel.Connect(ctx, sess.Token)
}

// Stop stops watching the session and closes the channel.
func (b *Binder) Stop() {
	b.unwatch()
	b.channel.Close()
}
