/*
Package errs provides custom error types and application-level error code constants.

These error codes identify the failures a user action can end in, whether the
cause is the local input, the network, the backend or the push channel.
*/
package errs

// 1xxx: Request and Transport Errors
const (
	// ErrInvalidParams indicates that local input validation failed before anything was sent.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that a response body or push payload could not be decoded.
	ErrInvalidJSONFormat = 1003

	// ErrRateLimitExceeded indicates that the backend answered 429 Too Many Requests.
	ErrRateLimitExceeded = 1007

	// ErrNetwork indicates that the request never produced an HTTP response (DNS, refused, reset).
	ErrNetwork = 1008

	// ErrRequestFailed indicates a non-2xx response that has no more specific mapping.
	ErrRequestFailed = 1009
)

// 2xxx: Conversation and Message Errors
const (
	// ErrConversationNotSelected indicates that an action required an active conversation.
	ErrConversationNotSelected = 2103

	// ErrMessageEmpty indicates that the composer was submitted with a blank body.
	ErrMessageEmpty = 2200

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrSessionKicked indicates that the push connection was closed because the session was replaced.
	ErrSessionKicked = 3004

	// ErrInvalidUsername indicates a username that fails local validation.
	ErrInvalidUsername = 3006

	// ErrInvalidPassword indicates a password that fails local validation.
	ErrInvalidPassword = 3007

	// ErrInvalidEmail indicates an email address that fails local validation.
	ErrInvalidEmail = 3008

	// ErrInvalidCredentials indicates that the backend rejected a login attempt.
	ErrInvalidCredentials = 3009

	// ErrNotLoggedIn indicates that no session is stored.
	ErrNotLoggedIn = 3010

	// ErrSessionExpired indicates that the stored token's exp claim has passed.
	ErrSessionExpired = 3011

	// ErrUnauthorized indicates that the backend answered 401 for an authenticated call.
	ErrUnauthorized = 3012
)

// 4xxx: Push Channel Errors
const (
	// ErrNotConnected indicates that an outbound event was emitted with no open push connection.
	ErrNotConnected = 4001

	// ErrSendQueueFull indicates that the outbound queue of the push connection was full.
	ErrSendQueueFull = 4002

	// ErrUnknownEventKind indicates a push envelope whose type is not part of the event set.
	ErrUnknownEventKind = 4003

	// ErrMalformedEvent indicates a known event kind whose payload does not match its schema.
	ErrMalformedEvent = 4004

	// ErrDialFailed indicates that the push connection could not be established.
	ErrDialFailed = 4005
)

// 5xxx: Internal and Backend Errors
const (
	// ErrUnknown represents an unclassified failure.
	ErrUnknown = 5000

	// ErrServer indicates that the backend answered with a 5xx status.
	ErrServer = 5001

	// ErrStorageFailed indicates that the local credential database failed.
	ErrStorageFailed = 5002
)
