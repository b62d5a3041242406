/*
Package resp provides helper functions for reading HTTP responses from the backend.

It decodes successful JSON bodies into caller-provided values and turns failed responses
into application errors that keep the backend's status code and body unchanged.
*/
package resp

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"chatterm/internal/pkg/errs"
)

// MaxResponseBodySize bounds how much of a response body is read (8 MB).
const MaxResponseBodySize = 8 << 20

// ErrorBody is the shape backends use for error payloads. Either field may be set.
type ErrorBody struct {
	// Message is the user-facing description most endpoints return.
	Message string `json:"message"`

	// Error is used by some endpoints (e.g. friend requests) instead of Message.
	Error string `json:"error"`
}

// Text returns the first non-empty description in the body.
func (b ErrorBody) Text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

// Decode reads res and, for a 2xx status, unmarshals the body into dst (which may be nil).
// For any other status it returns the error built by FromStatus. The body is always closed.
func Decode(res *http.Response, dst any) *errs.CustomError {
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseBodySize))
	if err != nil {
		return errs.NewError(errs.ErrNetwork).WithCause(err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return FromStatus(res.StatusCode, body)
	}

	if dst == nil || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat).WithCause(err)
	}

	return nil
}

// FromStatus maps a failed HTTP status and its raw body to an application error.
// The body is attached unchanged; its message or error field, when present, becomes the user message.
func FromStatus(status int, body []byte) *errs.CustomError {
	var code int
	switch {
	case status == http.StatusUnauthorized:
		code = errs.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		code = errs.ErrRateLimitExceeded
	case status >= 500:
		code = errs.ErrServer
	default:
		code = errs.ErrRequestFailed
	}

	var parsed ErrorBody
	_ = json.Unmarshal(body, &parsed)

	return errs.NewError(code).WithResponse(status, body, parsed.Text())
}
