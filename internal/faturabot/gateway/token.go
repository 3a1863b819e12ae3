// Package gateway talks to the billing gateway and its auth service: it
// holds the shared bearer token, mints and refreshes it with the fixed
// service identity, and dispatches validated billing actions to the right
// gateway operation with a single refresh-and-retry on 401.
package gateway

import "sync"

// TokenCell holds the process-wide bearer token shared by every session.
// Reads observe either the pre- or post-refresh value, never a torn write;
// concurrent refreshes are harmless and last write wins. The cell is
// injected into whoever needs it rather than living in a package global.
type TokenCell struct {
	mu    sync.RWMutex
	token string
}

// Current returns the stored token, or "" when none has been minted yet.
func (c *TokenCell) Current() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Set replaces the stored token.
func (c *TokenCell) Set(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}
