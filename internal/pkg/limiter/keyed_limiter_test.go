package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"
)

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	l := NewKeyedLimiter[int64](rate.Every(time.Hour), 1, time.Hour)
	defer l.Stop()

	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1), "burst of one is spent")
	assert.True(t, l.Allow(2), "other keys have their own bucket")
	assert.Equal(t, 2, l.Len())
}

func TestSweepRemovesOnlyIdleKeys(t *testing.T) {
	l := NewKeyedLimiter[string](rate.Every(time.Second), 1, time.Hour)
	defer l.Stop()

	l.GetLimiter("idle")
	l.Allow("busy")

	removed, remaining := l.sweep(time.Now())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, remaining)

	removed, remaining = l.sweep(time.Now().Add(2 * time.Second))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, remaining)
}

func TestStopReleasesGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l := NewKeyedLimiter[int](rate.Inf, 1, time.Millisecond)
	l.Stop()
	l.Stop()
}
