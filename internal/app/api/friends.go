package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"chatterm/internal/app/friends"
	"chatterm/internal/app/user"
)

type friendRequestBody struct {
	ToUsername string `json:"toUsername"`
}

// Friends returns the signed-in user's friends.
func (c *Client) Friends(ctx context.Context) ([]user.User, error) {
	var out []user.User
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "friends"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IncomingRequests returns pending requests sent to the signed-in user.
func (c *Client) IncomingRequests(ctx context.Context) ([]friends.Request, error) {
	return c.requests(ctx, "incoming")
}

// OutgoingRequests returns pending requests the signed-in user sent.
func (c *Client) OutgoingRequests(ctx context.Context) ([]friends.Request, error) {
	return c.requests(ctx, "outgoing")
}

func (c *Client) requests(ctx context.Context, direction string) ([]friends.Request, error) {
	var out []friends.Request
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "friends", "requests", direction), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendFriendRequest sends a request to the user named toUsername.
func (c *Client) SendFriendRequest(ctx context.Context, toUsername string) error {
	return c.do(ctx, http.MethodPost, c.endpoint(nil, "friends", "request"), friendRequestBody{ToUsername: toUsername}, nil)
}

// AcceptFriendRequest accepts an incoming request.
func (c *Client) AcceptFriendRequest(ctx context.Context, requestID int64) error {
	return c.do(ctx, http.MethodPost, c.endpoint(nil, "friends", "request", strconv.FormatInt(requestID, 10), "accept"), nil, nil)
}

// DeclineFriendRequest declines an incoming request.
func (c *Client) DeclineFriendRequest(ctx context.Context, requestID int64) error {
	return c.do(ctx, http.MethodPost, c.endpoint(nil, "friends", "request", strconv.FormatInt(requestID, 10), "decline"), nil, nil)
}

// RemoveFriend ends a friendship.
func (c *Client) RemoveFriend(ctx context.Context, friendID int64) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(nil, "friends", strconv.FormatInt(friendID, 10)), nil, nil)
}

// SearchUsers lists users matching query. An empty query lists everyone the backend returns.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]user.User, error) {
	var q url.Values
	if query = strings.TrimSpace(query); query != "" {
		q = url.Values{"q": {query}}
	}

	var out []user.User
	if err := c.do(ctx, http.MethodGet, c.endpoint(q, "search"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
