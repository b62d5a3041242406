/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains an http.RoundTripper that logs the lifecycle of every outbound
API request: method, path, response status, and latency. Query strings are reduced
to their keys so that search terms and credentials never reach the log.
*/
package logx

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// redactURL returns the request path followed by the sorted query keys, without values.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	query := u.Query()
	if len(query) == 0 {
		return u.Path
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return u.Path + "?" + strings.Join(keys, "=&") + "="
}

// loggingTransport wraps another RoundTripper and logs every round trip.
type loggingTransport struct {
	next http.RoundTripper
}

// RequestLogger returns an http.RoundTripper that logs each outbound request made through next.
// A nil next uses http.DefaultTransport.
func RequestLogger(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	logger := Logger().With().
		Str("component", "http").
		Str("request_method", r.Method).
		Str("request_host", r.URL.Host).
		Str("request_uri", redactURL(r.URL)).
		Logger()

	t1 := time.Now()
	res, err := t.next.RoundTrip(r)
	latency := time.Since(t1)

	if err != nil {
		logger.Warn().
			Err(err).
			Dur("latency", latency).
			Msg("Request failed")
		return nil, err
	}

	logEvent := logger.Debug()
	if res.StatusCode >= 500 {
		logEvent = logger.Error()
	} else if res.StatusCode >= 400 {
		logEvent = logger.Warn()
	}

	logEvent.
		Int("status", res.StatusCode).
		Int64("bytes", res.ContentLength).
		Dur("latency", latency).
		Msg("Request completed")

	return res, nil
}
