package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionRateLimiter_SlidingWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewSessionRateLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "limits are per connection")

	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestSessionRateLimiter_Forget(t *testing.T) {
	rl := NewSessionRateLimiter(1, time.Minute)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	rl.Forget("a")
	assert.True(t, rl.Allow("a"))
}

func TestSessionRateLimiter_Disabled(t *testing.T) {
	var nilLimiter *SessionRateLimiter
	assert.True(t, nilLimiter.Allow("a"))
	nilLimiter.Forget("a")

	rl := NewSessionRateLimiter(0, time.Second)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("a"))
	}
}
