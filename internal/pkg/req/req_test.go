package req

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONEncodesBody(t *testing.T) {
	r, err := NewJSON(context.Background(), http.MethodPost, "http://localhost/api/friends/request", map[string]string{"toUsername": "ayse"})
	require.Nil(t, err)

	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	body, _ := io.ReadAll(r.Body)
	assert.JSONEq(t, `{"toUsername":"ayse"}`, string(body))
}

func TestNewJSONWithoutBody(t *testing.T) {
	r, err := NewJSON(context.Background(), http.MethodGet, "http://localhost/api/friends", nil)
	require.Nil(t, err)

	assert.Empty(t, r.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", r.Header.Get("Accept"))
	assert.Nil(t, r.Body)
}

func TestNewJSONRejectsUnencodable(t *testing.T) {
	_, err := NewJSON(context.Background(), http.MethodPost, "http://localhost", map[string]any{"ch": make(chan int)})
	require.NotNil(t, err)
}
