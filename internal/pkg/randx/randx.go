/*
Package randx provides identifier generation for locally created objects.

It generates the client idempotency tokens attached to outgoing messages and the
synthetic identifiers that optimistic messages carry until the server confirms them.
*/
package randx

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// syntheticSeq backs SyntheticMessageID. Seeding from the clock keeps ids from
// different runs apart in logs; the counter keeps them unique within a run.
var syntheticSeq atomic.Int64

func init() {
	syntheticSeq.Store(time.Now().UnixMilli())
}

// ClientToken generates a UUID v4 string used as the idempotency token of an outgoing message.
// The backend echoes it on the confirmed message so the optimistic copy can be reconciled.
func ClientToken() string {
	return uuid.NewString()
}

// IsValidClientToken reports whether s parses as a UUID.
func IsValidClientToken(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// SyntheticMessageID returns a unique negative identifier for an optimistic message.
// Server-assigned identifiers are positive, so the two can never collide.
func SyntheticMessageID() int64 {
	return -syntheticSeq.Add(1)
}

// IsSynthetic reports whether id was produced by SyntheticMessageID.
func IsSynthetic(id int64) bool {
	return id < 0
}
