package api

import (
	"sync"
	"time"
)

// throttle tracks the last call time per (account, path) for endpoints that
// declare a minimum interval. Violations fail fast; nothing is queued.
type throttle struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func newThrottle() *throttle {
	return &throttle{last: make(map[string]time.Time)}
}

// reserve records now as the last call time if the interval has elapsed,
// or returns *RateLimitError if it has not.
func (t *throttle) reserve(acct, path string, min time.Duration, now time.Time) error {
	key := acct + "\x00" + path

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.last[key]; ok {
		elapsed := now.Sub(prev)
		if elapsed < min {
			return &RateLimitError{
				Endpoint:    path,
				Account:     acct,
				MinInterval: min,
				Elapsed:     elapsed,
			}
		}
	}
	t.last[key] = now
	return nil
}
