package events

import (
	"fmt"

	"chatterm/internal/app/chat"
	"chatterm/internal/pkg/logx"
)

// Alert is a notification the user has to acknowledge. It does not change any state.
type Alert struct {
	Title string
	Text  string
}

// Router applies inbound events to the Store and raises alerts for friend request events.
type Router struct {
	store *chat.Store
	alert func(Alert)
}

// NewRouter creates a Router. alert may be nil, in which case alerts are only logged.
func NewRouter(store *chat.Store, alert func(Alert)) *Router {
	if alert == nil {
		alert = func(a Alert) {}
	}
	return &Router{store: store, alert: alert}
}

// HandleEvent implements Handler.
func (r *Router) HandleEvent(ev Event) {
	switch ev := ev.(type) {
	case MessageNew:
		r.store.AppendMessage(ev.Message.ConversationID, ev.Message)

	case MessageAck:
		r.store.AcknowledgeMessage(ev.ConversationID, ev.ClientToken, ev.ID, ev.CreatedAt)

	case Presence:
		r.store.SetParticipantOnline(ev.UserID, ev.IsOnline)

	case FriendsOnline:
		r.store.SetOnlineFriendSet(ev.UserIDs)

	case Typing:
		r.store.SetTyping(ev.ConversationID, ev.IsTyping)

	case FriendRequestReceived:
		logx.Info("Friend request received", "request_id", ev.RequestID, "from", ev.From.Username)
		r.alert(Alert{
			Title: "New friend request",
			Text:  fmt.Sprintf("%s sent you a friend request.", ev.From.Username),
		})

	case FriendRequestAccepted:
		logx.Info("Friend request accepted", "request_id", ev.RequestID, "by", ev.AcceptedBy.Username)
		r.alert(Alert{
			Title: "Friend request accepted",
			Text:  fmt.Sprintf("%s accepted your friend request.", ev.AcceptedBy.Username),
		})
	}
}
