/*
Package chat contains the client-side conversation and message store.

This file defines the data the store holds: conversations with their peer, the messages
of each conversation, and the fetch status that views render while data is loading.
*/
package chat

import (
	"time"

	"chatterm/internal/app/user"
	"chatterm/internal/pkg/randx"
)

const (
	// MaxContentBytes is the maximum allowed size (in bytes) of a message body.
	MaxContentBytes = 5000
)

// Message is one entry of a conversation log.
type Message struct {
	// ID is assigned by the backend (positive) or synthetic for optimistic messages (negative).
	ID int64 `json:"id"`

	// Body is the text content.
	Body string `json:"body"`

	// SenderID is the user id of the author.
	SenderID int64 `json:"senderId"`

	// ConversationID is the conversation the message belongs to.
	ConversationID int64 `json:"conversationId"`

	// CreatedAt is the server timestamp, or the local send time for optimistic messages.
	CreatedAt time.Time `json:"createdAt"`

	// ClientToken is the idempotency token the sender attached; echoed back by the backend.
	ClientToken string `json:"clientToken,omitempty"`
}

// Pending reports whether the message is an optimistic local copy not yet confirmed by the backend.
func (m Message) Pending() bool {
	return randx.IsSynthetic(m.ID)
}

// Conversation is one peer-to-peer thread.
type Conversation struct {
	ID          int64            `json:"id"`
	Participant user.Participant `json:"participant"`
	LastMessage *Message         `json:"lastMessage,omitempty"`
}

// FetchStatus is the lifecycle of the conversation list fetch.
type FetchStatus string

const (
	StatusIdle      FetchStatus = "idle"
	StatusLoading   FetchStatus = "loading"
	StatusSucceeded FetchStatus = "succeeded"
	StatusFailed    FetchStatus = "failed"
)
