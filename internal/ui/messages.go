package ui

import "chatterm/internal/app/session"

// authDoneMsg is the result of a login or registration.
type authDoneMsg struct {
	session  session.Session
	err      error
	register bool
}

// conversationsLoadedMsg is the result of a conversation list fetch.
type conversationsLoadedMsg struct {
	err error
}

// messagesLoadedMsg is the result of a message fetch.
type messagesLoadedMsg struct {
	conversationID int64
	err            error
}

// friendsDoneMsg is the result of a friend panel action.
type friendsDoneMsg struct {
	err error
}

type reconnectDoneMsg struct {
	err error
}

type logoutDoneMsg struct {
	err error
}

// sessionEndedMsg reports that the UI ended the session after the backend rejected the token.
type sessionEndedMsg struct {
	reason error
}
