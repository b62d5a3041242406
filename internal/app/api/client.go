/*
Package api is the client of the chat backend's REST interface.

Every request goes through a transport chain that attaches the bearer token read from the
credential store and logs the call. Failed responses come back as *errs.CustomError values
carrying the status code and the unmodified body.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"chatterm/internal/pkg/auth/jwt"
	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/logx"
	"chatterm/internal/pkg/req"
	"chatterm/internal/pkg/resp"
)

// Client issues authenticated calls against one backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the innermost RoundTripper, below the bearer and logging layers.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

// New creates a Client for baseURL. Tokens are read from tokens on every request.
func New(baseURL string, tokens jwt.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Transport: http.DefaultTransport},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http.Transport = logx.RequestLogger(jwt.BearerTransport(tokens, c.http.Transport))

	return c, nil
}

// endpoint joins path segments onto the base URL and applies the query.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := c.baseURL.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a JSON request and decodes a JSON response into dst.
func (c *Client) do(ctx context.Context, method, target string, body, dst any) error {
	r, cerr := req.NewJSON(ctx, method, target, body)
	if cerr != nil {
		return cerr
	}

	res, err := c.http.Do(r)
	if err != nil {
		return errs.NewError(errs.ErrNetwork).WithCause(err)
	}

	if cerr := resp.Decode(res, dst); cerr != nil {
		return cerr
	}
	return nil
}
