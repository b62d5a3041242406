/*
Package chat contains the client-side conversation and message store.

This file defines the Store: the single source of truth rendered by the views. Every mutation
goes through Dispatch and the reducer; subscribers receive a coalesced notification after
each change and read a fresh snapshot.
*/
package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatterm/internal/app/user"
	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/logx"
)

// Store holds the conversation list, the message logs and the typing flags.
type Store struct {
	// mu serialises reducer runs and protects state and subscribers.
	mu    sync.Mutex
	state State

	subscribers map[int]chan struct{}
	nextSubID   int

	logger zerolog.Logger
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		state:       NewState(),
		subscribers: make(map[int]chan struct{}),
		logger:      logx.Component("store"),
	}
}

// Dispatch applies the action and notifies subscribers if the state changed.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	changed := reduce(&s.state, a)
	if changed {
		s.notifyLocked()
	}
	s.mu.Unlock()

	s.logger.Debug().Type("action", a).Bool("changed", changed).Msg("Dispatched action.")
}

// Subscribe returns a channel that receives a value after state changes. Notifications are
// coalesced: a slow reader sees one pending signal, never a backlog. The returned function
// unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SetActiveConversation selects the conversation shown in the conversation window.
func (s *Store) SetActiveConversation(id int64) {
	s.Dispatch(SetActiveConversation{ConversationID: id})
}

// RecordFetchedConversations replaces the conversation list wholesale.
func (s *Store) RecordFetchedConversations(list []Conversation) {
	s.Dispatch(ConversationsFetched{Conversations: list})
}

// RecordFetchedMessages replaces the log of one conversation wholesale, dropping any
// optimistic messages it does not contain.
func (s *Store) RecordFetchedMessages(conversationID int64, list []Message) {
	s.Dispatch(MessagesFetched{ConversationID: conversationID, Messages: list})
}

// AppendMessage adds msg to a conversation log unless its id is already there,
// and clears the conversation's typing flag.
func (s *Store) AppendMessage(conversationID int64, msg Message) {
	s.Dispatch(MessageAppended{ConversationID: conversationID, Message: msg})
}

// AcknowledgeMessage gives the optimistic message carrying clientToken its server id.
func (s *Store) AcknowledgeMessage(conversationID int64, clientToken string, id int64, createdAt time.Time) {
	s.Dispatch(MessageAcknowledged{
		ConversationID: conversationID,
		ClientToken:    clientToken,
		MessageID:      id,
		CreatedAt:      createdAt,
	})
}

// SetTyping sets or clears a conversation's typing flag.
func (s *Store) SetTyping(conversationID int64, isTyping bool) {
	s.Dispatch(TypingChanged{ConversationID: conversationID, IsTyping: isTyping})
}

// SetParticipantOnline updates the online flag of every conversation with userID.
func (s *Store) SetParticipantOnline(userID int64, isOnline bool) {
	s.Dispatch(ParticipantPresence{UserID: userID, IsOnline: isOnline})
}

// SetOnlineFriendSet marks exactly the participants in ids as online.
func (s *Store) SetOnlineFriendSet(ids []int64) {
	s.Dispatch(OnlineFriendSet{UserIDs: ids})
}

// Reset drops all state.
func (s *Store) Reset() {
	s.Dispatch(Reset{})
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Conversations returns the conversations whose participant username contains filter,
// case-insensitively. An empty filter returns all of them.
func (s *Store) Conversations(filter string) []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	filter = strings.ToLower(strings.TrimSpace(filter))

	out := make([]Conversation, 0, len(s.state.Conversations))
	for _, conv := range cloneConversations(s.state.Conversations) {
		if filter == "" || strings.Contains(strings.ToLower(conv.Participant.Username), filter) {
			out = append(out, conv)
		}
	}
	return out
}

// ActiveConversation returns the selected conversation. It reports false when nothing is
// selected or the selected id is not in the list.
func (s *Store) ActiveConversation() (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conv := range s.state.Conversations {
		if conv.ID == s.state.ActiveID && s.state.ActiveID != 0 {
			return cloneConversations([]Conversation{conv})[0], true
		}
	}
	return Conversation{}, false
}

// ActiveID returns the selected conversation id, 0 when none.
func (s *Store) ActiveID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveID
}

// ActiveMessages returns the log of the selected conversation. Unknown ids yield an empty slice.
func (s *Store) ActiveMessages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLocked(s.state.ActiveID)
}

// Messages returns the log of one conversation, empty if none was fetched.
func (s *Store) Messages(conversationID int64) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLocked(conversationID)
}

func (s *Store) messagesLocked(id int64) []Message {
	log := s.state.Messages[id]
	out := make([]Message, len(log))
	copy(out, log)
	return out
}

// ActiveTyping reports whether the peer of the selected conversation is typing.
func (s *Store) ActiveTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Typing[s.state.ActiveID]
}

// Participant returns the peer of a conversation.
func (s *Store) Participant(conversationID int64) (user.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conv := range s.state.Conversations {
		if conv.ID == conversationID {
			return conv.Participant, true
		}
	}
	return user.Participant{}, false
}

// Status returns the conversation list fetch status.
func (s *Store) Status() FetchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Status
}

// Err returns the last conversation list fetch error, nil after a success.
func (s *Store) Err() *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Err
}

// MessagesErr returns the last failed message fetch of a conversation.
func (s *Store) MessagesErr(conversationID int64) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.MessageErrs[conversationID]
}
