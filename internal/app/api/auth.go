package api

import (
	"context"
	"net/http"

	"chatterm/internal/app/session"
	"chatterm/internal/app/user"
	"chatterm/internal/pkg/errs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func (r authResponse) session() (session.Session, error) {
	sess := session.Session{User: r.User, Token: r.Token}
	if !sess.Valid() {
		return session.Session{}, errs.NewError(errs.ErrInvalidJSONFormat)
	}
	return sess, nil
}

// Login exchanges email and password for a session. It implements session.Authenticator.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint(nil, "auth", "login"), loginRequest{Email: email, Password: password}, &out); err != nil {
		return session.Session{}, err
	}
	return out.session()
}

// Register creates an account and returns its session. It implements session.Authenticator.
func (c *Client) Register(ctx context.Context, username, email, password string) (session.Session, error) {
	body := registerRequest{Username: username, Email: email, Password: password}

	var out authResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint(nil, "auth", "register"), body, &out); err != nil {
		return session.Session{}, err
	}
	return out.session()
}
