/*
Package events contains the push channel: one WebSocket connection per session that feeds
backend events into the chat store and carries the composer's outbound events.

This file defines the wire format. Every frame is an envelope {"type", "payload"}; inbound
frames decode into exactly one of the Event types below, and frames of any other type are
rejected.
*/
package events

import (
	"encoding/json"
	"time"

	"chatterm/internal/app/chat"
	"chatterm/internal/app/user"
	"chatterm/internal/pkg/errs"
)

// Kind is the type field of an envelope.
type Kind string

const (
	// Inbound kinds.
	KindMessageNew            Kind = "message:new"
	KindMessageAck            Kind = "message:ack"
	KindUserOnline            Kind = "user:online"
	KindUserOffline           Kind = "user:offline"
	KindFriendsOnline         Kind = "friends:online"
	KindFriendRequestNew      Kind = "friend_request:new"
	KindFriendRequestAccepted Kind = "friend_request:accepted"
	KindTypingStart           Kind = "typing:start"
	KindTypingStop            Kind = "typing:stop"

	// Outbound kinds. typing:start and typing:stop are used in both directions.
	KindMessageSend Kind = "message:send"
)

// Envelope is the frame exchanged over the connection.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is the closed set of inbound events.
type Event interface {
	Kind() Kind
}

// MessageNew carries a message delivered to a conversation of the signed-in user.
type MessageNew struct {
	Message chat.Message
}

// MessageAck confirms a message the signed-in user sent, identified by its client token.
type MessageAck struct {
	ConversationID int64     `json:"conversationId"`
	ClientToken    string    `json:"clientToken"`
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Presence reports one user coming online or going offline.
type Presence struct {
	UserID   int64
	IsOnline bool
}

// FriendsOnline is the full set of the signed-in user's friends that are online.
type FriendsOnline struct {
	UserIDs []int64
}

// FriendRequestReceived reports a new incoming friend request.
type FriendRequestReceived struct {
	RequestID int64     `json:"id"`
	From      user.User `json:"from"`
}

// FriendRequestAccepted reports that a request the signed-in user sent was accepted.
type FriendRequestAccepted struct {
	RequestID  int64     `json:"id"`
	AcceptedBy user.User `json:"acceptedBy"`
}

// Typing reports the peer of a conversation starting or stopping to type.
type Typing struct {
	ConversationID int64
	IsTyping       bool
}

func (MessageNew) Kind() Kind            { return KindMessageNew }
func (MessageAck) Kind() Kind            { return KindMessageAck }
func (FriendsOnline) Kind() Kind         { return KindFriendsOnline }
func (FriendRequestReceived) Kind() Kind { return KindFriendRequestNew }
func (FriendRequestAccepted) Kind() Kind { return KindFriendRequestAccepted }

func (p Presence) Kind() Kind {
	if p.IsOnline {
		return KindUserOnline
	}
	return KindUserOffline
}

func (t Typing) Kind() Kind {
	if t.IsTyping {
		return KindTypingStart
	}
	return KindTypingStop
}

type idPayload struct {
	ID int64 `json:"id"`
}

type conversationPayload struct {
	ConversationID int64 `json:"conversationId"`
}

// Decode parses one inbound frame. Unknown kinds yield ErrUnknownEventKind; payloads that
// do not match their kind yield ErrMalformedEvent.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errs.NewError(errs.ErrInvalidJSONFormat).WithCause(err)
	}

	malformed := func(err error) error {
		ce := errs.NewError(errs.ErrMalformedEvent, string(env.Type))
		if err != nil {
			return ce.WithCause(err)
		}
		return ce
	}

	switch env.Type {
	case KindMessageNew:
		var msg chat.Message
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return nil, malformed(err)
		}
		if msg.ID <= 0 || msg.ConversationID == 0 {
			return nil, malformed(nil)
		}
		return MessageNew{Message: msg}, nil

	case KindMessageAck:
		var ack MessageAck
		if err := json.Unmarshal(env.Payload, &ack); err != nil {
			return nil, malformed(err)
		}
		if ack.ID <= 0 || ack.ConversationID == 0 || ack.ClientToken == "" {
			return nil, malformed(nil)
		}
		return ack, nil

	case KindUserOnline, KindUserOffline:
		var p idPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, malformed(err)
		}
		if p.ID == 0 {
			return nil, malformed(nil)
		}
		return Presence{UserID: p.ID, IsOnline: env.Type == KindUserOnline}, nil

	case KindFriendsOnline:
		var ids []int64
		if err := json.Unmarshal(env.Payload, &ids); err != nil {
			return nil, malformed(err)
		}
		return FriendsOnline{UserIDs: ids}, nil

	case KindFriendRequestNew:
		var ev FriendRequestReceived
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, malformed(err)
		}
		return ev, nil

	case KindFriendRequestAccepted:
		var ev FriendRequestAccepted
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, malformed(err)
		}
		return ev, nil

	case KindTypingStart, KindTypingStop:
		var p conversationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, malformed(err)
		}
		if p.ConversationID == 0 {
			return nil, malformed(nil)
		}
		return Typing{ConversationID: p.ConversationID, IsTyping: env.Type == KindTypingStart}, nil

	default:
		return nil, errs.NewError(errs.ErrUnknownEventKind, string(env.Type))
	}
}

// SendMessagePayload is the payload of an outbound message:send.
type SendMessagePayload struct {
	ConvID      int64  `json:"convId"`
	Body        string `json:"body"`
	ClientToken string `json:"clientToken"`
}

// TypingPayload is the payload of an outbound typing:start or typing:stop.
type TypingPayload struct {
	ConvID int64 `json:"convId"`
}

// Encode builds an outbound frame.
func Encode(kind Kind, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams).WithCause(err)
	}
	return json.Marshal(Envelope{Type: kind, Payload: raw})
}
