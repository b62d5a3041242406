/*
Package user contains core data structures related to user identity.

It defines the account a session belongs to (User) and the peer side of a
conversation as the client renders it (Participant).
*/
package user

import "strings"

// User represents the identity of an account as returned by the authentication endpoints.
type User struct {
	// ID is the backend identifier of the user.
	ID int64 `json:"id"`

	// Username is the unique handle shown in lists and used to address friend requests.
	Username string `json:"username"`

	// Email is the login address. Endpoints other than authentication may omit it.
	Email string `json:"email,omitempty"`

	// Avatar is a URL or asset reference for the user's picture, if any.
	Avatar string `json:"avatar,omitempty"`
}

// Initials returns the first two characters of the username in upper case, used as an avatar fallback.
func (u User) Initials() string {
	return initials(u.Username)
}

// Participant is the peer of a conversation, including their presence.
type Participant struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatarUrl,omitempty"`

	// IsOnline is mutated locally by presence events.
	IsOnline bool `json:"isOnline"`
}

// Initials returns the first two characters of the username in upper case.
func (p Participant) Initials() string {
	return initials(p.Username)
}

func initials(name string) string {
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
