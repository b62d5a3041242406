package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorUsesTemplate(t *testing.T) {
	err := NewError(ErrUnauthorized)

	assert.Equal(t, ErrUnauthorized, err.Code)
	assert.Equal(t, http.StatusUnauthorized, err.Status)
	assert.Equal(t, KindNetwork, err.Kind)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestNewErrorFormatsDetails(t *testing.T) {
	err := NewError(ErrMessageContentTooLong, 5000)
	assert.Equal(t, "Message is too long (max 5000 bytes).", err.Message)

	kind := NewError(ErrUnknownEventKind, "presence:ping")
	assert.Equal(t, `Unrecognized event kind "presence:ping".`, kind.Message)
}

func TestNewErrorUnknownCodeFallsBack(t *testing.T) {
	err := NewError(424242)
	assert.Equal(t, ErrUnknown, err.Code)
}

func TestTemplatesAreNotShared(t *testing.T) {
	a := NewError(ErrRequestFailed).WithResponse(http.StatusTeapot, []byte(`{"message":"short and stout"}`), "short and stout")
	b := NewError(ErrRequestFailed)

	assert.Equal(t, "short and stout", a.Message)
	assert.Equal(t, "The request failed.", b.Message)
	assert.Nil(t, b.Body)
}

func TestAsAndIs(t *testing.T) {
	wrapped := fmt.Errorf("fetching: %w", NewError(ErrNetwork))

	require.True(t, Is(wrapped, ErrNetwork))
	assert.False(t, Is(wrapped, ErrServer))
	assert.Equal(t, ErrNetwork, As(wrapped).Code)

	plain := errors.New("boom")
	got := As(plain)
	assert.Equal(t, ErrUnknown, got.Code)
	assert.ErrorIs(t, got, plain)

	assert.Nil(t, As(nil))
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrNetwork).WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "silent", KindSilent.String())
}
