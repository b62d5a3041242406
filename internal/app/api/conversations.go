package api

import (
	"context"
	"net/http"
	"strconv"

	"chatterm/internal/app/chat"
)

// Conversations returns the signed-in user's conversations.
func (c *Client) Conversations(ctx context.Context) ([]chat.Conversation, error) {
	var out []chat.Conversation
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "conversations"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Messages returns the log of one conversation.
func (c *Client) Messages(ctx context.Context, conversationID int64) ([]chat.Message, error) {
	var out []chat.Message
	target := c.endpoint(nil, "conversations", strconv.FormatInt(conversationID, 10), "messages")
	if err := c.do(ctx, http.MethodGet, target, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
