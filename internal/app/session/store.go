/*
Package session holds the credential store: the signed-in user and their token.

Store persists the single current session in the local SQLite database so it survives
restarts; Manager owns the in-memory copy, drives login, registration and logout, and
notifies watchers (the push channel binder, the UI) when a session starts or ends.
*/
package session

import (
	"context"
	"database/sql"
	"time"

	"chatterm/internal/app/db"
	"chatterm/internal/app/user"
	"chatterm/internal/pkg/errs"
)

// Session is the authenticated user context: identity plus bearer token.
type Session struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

// Valid reports whether the session has a token and a user id.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != 0
}

// Store is the durable storage of the current session.
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened database (see db.Open).
func NewStore(sqlDB *sql.DB) *Store {
	return &Store{db: sqlDB}
}

// Load returns the stored session, or ErrNotLoggedIn if there is none.
func (s *Store) Load(ctx context.Context) (Session, error) {
	var sess Session

	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, email, avatar, token FROM session WHERE slot = 1`)

	err := row.Scan(&sess.User.ID, &sess.User.Username, &sess.User.Email, &sess.User.Avatar, &sess.Token)
	if db.IsNotFound(err) {
		return Session{}, errs.NewError(errs.ErrNotLoggedIn)
	}
	if err != nil {
		return Session{}, errs.NewError(errs.ErrStorageFailed).WithCause(err)
	}

	return sess, nil
}

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (slot, user_id, username, email, avatar, token, created_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET
			user_id = excluded.user_id,
			username = excluded.username,
			email = excluded.email,
			avatar = excluded.avatar,
			token = excluded.token,
			created_at = excluded.created_at`,
		sess.User.ID, sess.User.Username, sess.User.Email, sess.User.Avatar, sess.Token, time.Now().Unix())
	if err != nil {
		return errs.NewError(errs.ErrStorageFailed).WithCause(err)
	}
	return nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return errs.NewError(errs.ErrStorageFailed).WithCause(err)
	}
	return nil
}

// Token returns the stored token, or "" when signed out. It reads the database on every
// call so that every outbound request uses exactly what is persisted.
func (s *Store) Token(ctx context.Context) (string, error) {
	var token string

	err := s.db.QueryRowContext(ctx, `SELECT token FROM session WHERE slot = 1`).Scan(&token)
	if db.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", errs.NewError(errs.ErrStorageFailed).WithCause(err)
	}

	return token, nil
}
