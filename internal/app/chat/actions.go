package chat

import (
	"time"

	"chatterm/internal/pkg/errs"
)

// Action is the closed set of state transitions the Store accepts.
// Every concrete action type lives in this file.
type Action interface {
	isAction()
}

// SetActiveConversation selects the conversation shown in the conversation window.
// The id is not validated against the conversation list.
type SetActiveConversation struct {
	ConversationID int64
}

// ConversationsRequested marks the conversation list fetch as in flight.
type ConversationsRequested struct{}

// ConversationsFetched replaces the conversation list wholesale.
type ConversationsFetched struct {
	Conversations []Conversation
}

// ConversationsFailed records a failed conversation list fetch.
type ConversationsFailed struct {
	Err *errs.CustomError
}

// MessagesFetched replaces one conversation's log wholesale.
type MessagesFetched struct {
	ConversationID int64
	Messages       []Message
}

// MessagesFailed records a failed message fetch. The log is left untouched.
type MessagesFailed struct {
	ConversationID int64
	Err            *errs.CustomError
}

// MessageAppended adds a message to a conversation log unless its id is already present.
type MessageAppended struct {
	ConversationID int64
	Message        Message
}

// MessageAcknowledged confirms an optimistic message: the entry carrying ClientToken
// takes the server id and timestamp.
type MessageAcknowledged struct {
	ConversationID int64
	ClientToken    string
	MessageID      int64
	CreatedAt      time.Time
}

// TypingChanged sets or clears the typing flag of a conversation.
type TypingChanged struct {
	ConversationID int64
	IsTyping       bool
}

// ParticipantPresence updates the online flag of every conversation with that participant.
type ParticipantPresence struct {
	UserID   int64
	IsOnline bool
}

// OnlineFriendSet recomputes every participant's online flag from membership in UserIDs.
type OnlineFriendSet struct {
	UserIDs []int64
}

// Reset returns the store to its initial state.
type Reset struct{}

func (SetActiveConversation) isAction()  {}
func (ConversationsRequested) isAction() {}
func (ConversationsFetched) isAction()   {}
func (ConversationsFailed) isAction()    {}
func (MessagesFetched) isAction()        {}
func (MessagesFailed) isAction()         {}
func (MessageAppended) isAction()        {}
func (MessageAcknowledged) isAction()    {}
func (TypingChanged) isAction()          {}
func (ParticipantPresence) isAction()    {}
func (OnlineFriendSet) isAction()        {}
func (Reset) isAction()                  {}
