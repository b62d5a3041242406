/*
Package req provides helper functions for building outbound HTTP requests.

It encapsulates JSON encoding of request bodies and the headers every API call carries,
returning application errors so that callers can surface them unchanged.
*/
package req

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"chatterm/internal/pkg/errs"
)

// MaxRequestBodySize bounds the JSON bodies the client sends (1 MB).
const MaxRequestBodySize = 1 << 20

// NewJSON builds a request for method and url whose body is the JSON encoding of body.
// A nil body produces a request without a body or Content-Type.
func NewJSON(ctx context.Context, method, url string, body any) (*http.Request, *errs.CustomError) {
	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errs.NewError(errs.ErrInvalidParams).WithCause(err)
		}
		if len(encoded) > MaxRequestBodySize {
			return nil, errs.NewError(errs.ErrInvalidParams)
		}
		reader = bytes.NewReader(encoded)
	}

	r, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams).WithCause(err)
	}

	r.Header.Set("Accept", "application/json")
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	return r, nil
}
