package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_RefillsOverWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("u"))
	assert.True(t, rl.Allow("u"))
	assert.False(t, rl.Allow("u"))
	assert.True(t, rl.Allow("other"))

	now = now.Add(30 * time.Second)
	assert.True(t, rl.Allow("u"))
	assert.False(t, rl.Allow("u"))
}

func TestRateLimiter_CollectsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	assert.Len(t, rl.limiters, 2)

	now = now.Add(3 * time.Minute)
	rl.Allow("c")
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "c")
}

func TestRateLimiter_ZeroRequestsStillAllowsOne(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	assert.True(t, rl.Allow("u"))
	assert.False(t, rl.Allow("u"))
}
