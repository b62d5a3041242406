package chat

import (
	"context"

	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/logx"
)

// ConversationAPI is the part of the API client the fetcher needs.
type ConversationAPI interface {
	Conversations(ctx context.Context) ([]Conversation, error)
	Messages(ctx context.Context, conversationID int64) ([]Message, error)
}

// Fetcher loads conversations and messages from the backend into the Store.
// Failures are recorded in the Store and returned; nothing is retried.
type Fetcher struct {
	api   ConversationAPI
	store *Store
}

// NewFetcher creates a Fetcher.
func NewFetcher(api ConversationAPI, store *Store) *Fetcher {
	return &Fetcher{api: api, store: store}
}

// FetchConversations replaces the conversation list with the backend's.
func (f *Fetcher) FetchConversations(ctx context.Context) error {
	f.store.Dispatch(ConversationsRequested{})

	list, err := f.api.Conversations(ctx)
	if err != nil {
		ce := errs.As(err)
		logx.Warn("Failed to fetch conversations", "code", ce.Code, "status", ce.Status)
		f.store.Dispatch(ConversationsFailed{Err: ce})
		return ce
	}

	f.store.RecordFetchedConversations(list)
	return nil
}

// FetchMessages replaces the log of conversationID with the backend's.
func (f *Fetcher) FetchMessages(ctx context.Context, conversationID int64) error {
	list, err := f.api.Messages(ctx, conversationID)
	if err != nil {
		ce := errs.As(err)
		logx.Warn("Failed to fetch messages", "conversation_id", conversationID, "code", ce.Code, "status", ce.Status)
		f.store.Dispatch(MessagesFailed{ConversationID: conversationID, Err: ce})
		return ce
	}

	f.store.RecordFetchedMessages(conversationID, list)
	return nil
}
