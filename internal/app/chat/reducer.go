package chat

import (
	"slices"

	"chatterm/internal/pkg/errs"
)

// State is the complete content of the Store.
type State struct {
	// Conversations is the list as last fetched. Only participant online flags change locally.
	Conversations []Conversation

	// ActiveID is the selected conversation, 0 when none is selected.
	ActiveID int64

	// Messages holds one log per conversation, in receipt order.
	Messages map[int64][]Message

	// Typing holds the conversations whose peer is typing. Only true entries are kept.
	Typing map[int64]bool

	// Status and Err describe the conversation list fetch.
	Status FetchStatus
	Err    *errs.CustomError

	// MessageErrs holds the last failed message fetch per conversation.
	MessageErrs map[int64]*errs.CustomError
}

// NewState returns the initial state.
func NewState() State {
	return State{
		Messages:    make(map[int64][]Message),
		Typing:      make(map[int64]bool),
		MessageErrs: make(map[int64]*errs.CustomError),
		Status:      StatusIdle,
	}
}

// clone returns a deep copy of s. Snapshots handed out by the Store never alias its state.
func (s State) clone() State {
	c := s
	c.Conversations = cloneConversations(s.Conversations)

	c.Messages = make(map[int64][]Message, len(s.Messages))
	for id, log := range s.Messages {
		c.Messages[id] = slices.Clone(log)
	}

	c.Typing = make(map[int64]bool, len(s.Typing))
	for id, v := range s.Typing {
		c.Typing[id] = v
	}

	c.MessageErrs = make(map[int64]*errs.CustomError, len(s.MessageErrs))
	for id, v := range s.MessageErrs {
		c.MessageErrs[id] = v
	}

	return c
}

func cloneConversations(list []Conversation) []Conversation {
	if list == nil {
		return nil
	}
	out := make([]Conversation, len(list))
	for i, conv := range list {
		out[i] = conv
		if conv.LastMessage != nil {
			last := *conv.LastMessage
			out[i].LastMessage = &last
		}
	}
	return out
}

// reduce applies a to s and reports whether anything changed.
func reduce(s *State, a Action) bool {
	switch a := a.(type) {
	case SetActiveConversation:
		if s.ActiveID == a.ConversationID {
			return false
		}
		s.ActiveID = a.ConversationID
		return true

	case ConversationsRequested:
		s.Status = StatusLoading
		s.Err = nil
		return true

	case ConversationsFetched:
		s.Conversations = cloneConversations(a.Conversations)
		if s.Conversations == nil {
			s.Conversations = []Conversation{}
		}
		s.Status = StatusSucceeded
		s.Err = nil
		return true

	case ConversationsFailed:
		s.Status = StatusFailed
		s.Err = a.Err
		return true

	case MessagesFetched:
		log := slices.Clone(a.Messages)
		if log == nil {
			log = []Message{}
		}
		s.Messages[a.ConversationID] = log
		delete(s.MessageErrs, a.ConversationID)
		return true

	case MessagesFailed:
		s.MessageErrs[a.ConversationID] = a.Err
		return true

	case MessageAppended:
		appendMessage(s, a.ConversationID, a.Message)
		delete(s.Typing, a.ConversationID)
		return true

	case MessageAcknowledged:
		return acknowledgeMessage(s, a)

	case TypingChanged:
		if a.IsTyping {
			if s.Typing[a.ConversationID] {
				return false
			}
			s.Typing[a.ConversationID] = true
			return true
		}
		if !s.Typing[a.ConversationID] {
			return false
		}
		delete(s.Typing, a.ConversationID)
		return true

	case ParticipantPresence:
		changed := false
		for i := range s.Conversations {
			p := &s.Conversations[i].Participant
			if p.ID == a.UserID && p.IsOnline != a.IsOnline {
				p.IsOnline = a.IsOnline
				changed = true
			}
		}
		return changed

	case OnlineFriendSet:
		online := make(map[int64]struct{}, len(a.UserIDs))
		for _, id := range a.UserIDs {
			online[id] = struct{}{}
		}
		changed := false
		for i := range s.Conversations {
			p := &s.Conversations[i].Participant
			_, isOnline := online[p.ID]
			if p.IsOnline != isOnline {
				p.IsOnline = isOnline
				changed = true
			}
		}
		return changed

	case Reset:
		*s = NewState()
		return true
	}

	return false
}

// appendMessage adds msg to the log of convID, creating the log if needed. A message whose id
// is already present is dropped. A message carrying the client token of an optimistic entry
// replaces that entry in place.
func appendMessage(s *State, convID int64, msg Message) {
	log := s.Messages[convID]

	if slices.ContainsFunc(log, func(m Message) bool { return m.ID == msg.ID }) {
		return
	}

	if msg.ClientToken != "" {
		i := slices.IndexFunc(log, func(m Message) bool {
			return m.Pending() && m.ClientToken == msg.ClientToken
		})
		if i >= 0 {
			log[i] = msg
			s.Messages[convID] = log
			return
		}
	}

	s.Messages[convID] = append(log, msg)
}

// acknowledgeMessage confirms the optimistic entry carrying a.ClientToken. If the confirmed
// message already arrived, the optimistic copy is dropped instead.
func acknowledgeMessage(s *State, a MessageAcknowledged) bool {
	log := s.Messages[a.ConversationID]

	i := slices.IndexFunc(log, func(m Message) bool {
		return m.Pending() && m.ClientToken == a.ClientToken
	})
	if i < 0 {
		return false
	}

	if slices.ContainsFunc(log, func(m Message) bool { return m.ID == a.MessageID }) {
		s.Messages[a.ConversationID] = slices.Delete(log, i, i+1)
		return true
	}

	log[i].ID = a.MessageID
	if !a.CreatedAt.IsZero() {
		log[i].CreatedAt = a.CreatedAt
	}
	return true
}
