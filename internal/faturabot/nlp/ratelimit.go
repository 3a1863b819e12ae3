package nlp

import (
	"sync"
	"time"
)

const (
	// DefaultRateLimit is the maximum number of completion calls allowed
	// per session per minute when no explicit limit is configured.
	DefaultRateLimit = 20

	defaultRateLimitWindow = time.Minute
)

// RateLimiter enforces a per-session sliding-window limit on completion
// calls, bounding token spend from a chatty or scripted client. Call
// timestamps inside the window are kept per session and pruned on every
// Allow, so memory stays O(limit) per active session.
//
// Safe for concurrent use.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	byOwner map[string][]time.Time
}

// NewRateLimiter returns a RateLimiter allowing at most limit calls per
// session within window. Non-positive arguments fall back to
// DefaultRateLimit and one minute.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = defaultRateLimitWindow
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		byOwner: make(map[string][]time.Time),
	}
}

// Allow reports whether the session may make another completion call and,
// when it may, records the call. Once a session has exhausted its quota,
// Allow returns false until enough old calls age out of the window.
func (r *RateLimiter) Allow(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	recent := r.byOwner[sessionID]
	live := recent[:0]
	for _, t := range recent {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) >= r.limit {
		r.byOwner[sessionID] = live
		return false
	}

	r.byOwner[sessionID] = append(live, now)
	return true
}

// Forget drops a session's call history. Called when the session closes so
// the map does not accumulate dead entries.
func (r *RateLimiter) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byOwner, sessionID)
}
