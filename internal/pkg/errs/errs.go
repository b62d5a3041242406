/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and carries a business code, a user-facing message, the HTTP status and raw body of the
response that caused it (if any), and the Kind that decides how the view layer reports it.
*/
package errs

import (
	"errors"
	"fmt"
	"strings"

	"chatterm/internal/pkg/logx"
)

// Kind classifies how a failure is surfaced to the user.
type Kind int

const (
	// KindNetwork covers network and authorization failures: shown as a dismissable inline message.
	KindNetwork Kind = iota

	// KindValidation covers input validation failures: shown as an inline form error.
	KindValidation

	// KindSilent covers failures that are only logged.
	KindSilent
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// CustomError is the custom error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the HTTP status code of the response that produced this error, 0 if none.
	Status int

	// Kind decides whether the error is shown inline, as a form error, or only logged.
	Kind Kind

	// Body is the unmodified response body, when the error came from the backend.
	Body []byte

	// cause is the underlying error, if any.
	cause error
}

// Error implements the standard Go error interface.
func (e *CustomError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("Error Code %d: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *CustomError) Unwrap() error {
	return e.cause
}

// WithCause returns a copy of e wrapping the given cause.
func (e *CustomError) WithCause(cause error) *CustomError {
	c := *e
	c.cause = cause
	return &c
}

// WithResponse returns a copy of e carrying the HTTP status and raw body of a failed response.
// A non-empty message replaces the template message.
func (e *CustomError) WithResponse(status int, body []byte, message string) *CustomError {
	c := *e
	c.Status = status
	c.Body = body
	if message != "" {
		c.Message = message
	}
	return &c
}

// NewError constructs and returns a new *CustomError instance based on a predefined error code.
// The optional details parameter supplies printf-style arguments for the message template.
// If an unknown code is provided, it defaults to returning ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			customErr.cause = originalErr
			logx.Error(
				originalErr,
				"Handling ErrUnknown with underlying error",
			)
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code,
			)
		}
	}

	return &customErr
}

// As extracts a *CustomError from err. Any other non-nil error is wrapped as ErrUnknown.
func As(err error) *CustomError {
	if err == nil {
		return nil
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	return NewError(ErrUnknown, err)
}

// Is reports whether err is a *CustomError with the given code.
func Is(err error, code int) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code == code
	}
	return false
}
