package signal

import (
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/core"
)

// SessionRateLimiter is a sliding-window limiter keyed by connection.
type SessionRateLimiter struct {
	mu       sync.Mutex
	history  map[core.SessionID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

// NewSessionRateLimiter allows limit events per interval. A non-positive limit
// disables limiting.
func NewSessionRateLimiter(limit int, interval time.Duration) *SessionRateLimiter {
	return &SessionRateLimiter{
		history:  make(map[core.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *SessionRateLimiter) Allow(sid core.SessionID) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}

	rl.history[sid] = append(fresh, now)
	return true
}

// Forget drops the history of a closed connection.
func (rl *SessionRateLimiter) Forget(sid core.SessionID) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, sid)
}
