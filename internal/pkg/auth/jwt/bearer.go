package jwt

import (
	"context"
	"net/http"
	"strings"

	"chatterm/internal/pkg/logx"
)

// TokenSource yields the current session token. An empty token means anonymous.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// BearerHeader formats the Authorization header value for token.
func BearerHeader(token string) string {
	return "Bearer " + token
}

// TokenFromHeader extracts the token from an "Authorization: Bearer <token>" header value.
func TokenFromHeader(authHeader string) (string, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// bearerTransport attaches the bearer token from source to every outbound request.
type bearerTransport struct {
	source TokenSource
	next   http.RoundTripper
}

// BearerTransport returns an http.RoundTripper that reads the token from source on every
// request and sets the Authorization header. A missing token sends the request anonymously,
// which is what the login and register endpoints expect.
func BearerTransport(source TokenSource, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &bearerTransport{source: source, next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	token, err := t.source.Token(r.Context())
	if err != nil {
		logx.Warn("Failed to read session token, sending request anonymously", "error", err.Error())
		return t.next.RoundTrip(r)
	}

	if token == "" {
		return t.next.RoundTrip(r)
	}

	// RoundTrippers must not modify the caller's request.
	authed := r.Clone(r.Context())
	authed.Header.Set("Authorization", BearerHeader(token))

	return t.next.RoundTrip(authed)
}
