/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError template used to
build every error the client surfaces to the user or the log.
*/
package errs

import "net/http"

// errorMap stores the CustomError template corresponding to every application error code.
// The key is the error code (int), and the value carries the user message, the
// HTTP status the code usually comes from, and how the view layer reports it.
var errorMap = map[int]CustomError{
	// 1xxx: Request and Transport Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Please check the highlighted fields.", Kind: KindValidation},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "The server sent data we could not read.", Kind: KindNetwork},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests, Kind: KindNetwork},
	ErrNetwork:           {Code: ErrNetwork, Message: "Could not reach the server.", Kind: KindNetwork},
	ErrRequestFailed:     {Code: ErrRequestFailed, Message: "The request failed.", Kind: KindNetwork},

	// 2xxx: Conversation and Message Errors
	ErrConversationNotSelected: {Code: ErrConversationNotSelected, Message: "Select a conversation first.", Kind: KindValidation},
	ErrMessageEmpty:            {Code: ErrMessageEmpty, Message: "Message is empty.", Kind: KindValidation},
	ErrMessageContentTooLong:   {Code: ErrMessageContentTooLong, Message: "Message is too long (max %d bytes).", Kind: KindValidation},

	// 3xxx: User, Session, and Security Errors
	ErrSessionKicked:      {Code: ErrSessionKicked, Message: "You were signed in on another device.", Kind: KindNetwork},
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Invalid username.", Kind: KindValidation},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Invalid password.", Kind: KindValidation},
	ErrInvalidEmail:       {Code: ErrInvalidEmail, Message: "Invalid email address.", Kind: KindValidation},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect email or password.", Status: http.StatusUnauthorized, Kind: KindValidation},
	ErrNotLoggedIn:        {Code: ErrNotLoggedIn, Message: "Please sign in to continue.", Kind: KindSilent},
	ErrSessionExpired:     {Code: ErrSessionExpired, Message: "Your session has expired. Please sign in again.", Kind: KindNetwork},
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized, Kind: KindNetwork},

	// 4xxx: Push Channel Errors
	ErrNotConnected:     {Code: ErrNotConnected, Message: "Live updates are not connected.", Kind: KindSilent},
	ErrSendQueueFull:    {Code: ErrSendQueueFull, Message: "Live updates are busy. Please try again.", Kind: KindSilent},
	ErrUnknownEventKind: {Code: ErrUnknownEventKind, Message: "Unrecognized event kind %q.", Kind: KindSilent},
	ErrMalformedEvent:   {Code: ErrMalformedEvent, Message: "Malformed %q event.", Kind: KindSilent},
	ErrDialFailed:       {Code: ErrDialFailed, Message: "Could not connect to live updates.", Kind: KindNetwork},

	// 5xxx: Internal and Backend Errors
	ErrUnknown:       {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Kind: KindNetwork},
	ErrServer:        {Code: ErrServer, Message: "The server had a problem. Please try again.", Status: http.StatusInternalServerError, Kind: KindNetwork},
	ErrStorageFailed: {Code: ErrStorageFailed, Message: "Local storage failed.", Kind: KindSilent},
}
