// Package nlp is the natural-language layer of Faturabot.
//
// It sits between the raw WebSocket message and the billing gateway. Its
// sole responsibility is translation: build the extraction prompt, obtain a
// completion from the LLM, and parse the completion into canonical billing
// actions. The LLM only proposes actions, never executes them: every
// proposal still flows through validation and the payment keyword guard
// before the gateway is contacted.
package nlp

import (
	"context"
	"errors"
)

// ErrRateLimit is returned by a Provider when the upstream LLM API reports a
// rate-limiting condition (e.g. HTTP 429 Too Many Requests). Callers should
// surface a user-visible message; the request was understood but cannot be
// fulfilled right now.
var ErrRateLimit = errors.New("nlp: upstream rate limit exceeded")

// ErrMalformedOutput is returned by ParseExtraction when the completion text
// cannot be interpreted as an action proposal (JSON parse failure or a shape
// the action schema rejects). The turn is discarded and the user notified;
// the completion engine is not retried.
var ErrMalformedOutput = errors.New("nlp: malformed completion output")

// ErrNotUnderstood is returned by ParseExtraction when the completion is
// valid JSON but carries neither an "actions" array nor an "intent" key.
var ErrNotUnderstood = errors.New("nlp: completion carries no recognizable intent")

// Provider produces a raw completion for a prompt. Implementations may be
// slow and may return malformed output; both are the caller's problem.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
