package jwt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnverifiedReadsClaims(t *testing.T) {
	token, err := GenerateToken(&Payload{UserID: 9, Username: "ayse"}, "secret", time.Hour)
	require.NoError(t, err)

	payload, err := ParseUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, int64(9), payload.UserID)
	assert.Equal(t, "ayse", payload.Username)

	_, ok := payload.Expiry()
	assert.True(t, ok)
}

func TestParseUnverifiedRejectsGarbage(t *testing.T) {
	_, err := ParseUnverified("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestIsExpired(t *testing.T) {
	token, err := GenerateToken(&Payload{UserID: 1}, "secret", time.Hour)
	require.NoError(t, err)

	now := time.Now()
	assert.False(t, IsExpired(token, now))
	assert.True(t, IsExpired(token, now.Add(2*time.Hour)))
	assert.True(t, IsExpired(token, now.Add(time.Hour-ExpiryLeeway/2)))

	assert.False(t, IsExpired("opaque-session-token", now), "opaque tokens never expire locally")
}

func TestParseTokenVerifiesSignature(t *testing.T) {
	token, err := GenerateToken(&Payload{UserID: 3}, "secret", time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)

	payload, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(3), payload.UserID)
}

func TestTokenFromHeader(t *testing.T) {
	token, ok := TokenFromHeader("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	for _, bad := range []string{"", "Bearer", "Bearer ", "Basic abc", "bearer abc"} {
		_, ok := TokenFromHeader(bad)
		assert.False(t, ok, bad)
	}
}

func TestBearerTransportReadsTokenPerRequest(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	current := ""
	source := TokenSourceFunc(func(ctx context.Context) (string, error) {
		return current, nil
	})
	client := &http.Client{Transport: BearerTransport(source, nil)}

	for _, tok := range []string{"", "first", "second"} {
		current = tok
		res, err := client.Get(srv.URL)
		require.NoError(t, err)
		res.Body.Close()
	}

	assert.Equal(t, []string{"", "Bearer first", "Bearer second"}, seen)
}
