// Package session owns the per-connection control loop: it receives raw
// customer text, runs the extraction pipeline, dispatches validated actions
// to the gateway, and writes the formatted replies back, one per action, in
// extraction order.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/faturabot/faturabot/internal/faturabot/billing"
	"github.com/faturabot/faturabot/internal/faturabot/gateway"
	"github.com/faturabot/faturabot/internal/faturabot/nlp"
)

// State is the session lifecycle. Transitions only move forward:
// Open (accepted, greeting sent) → Active (turn loop) → Closed (terminal).
type State int

const (
	StateOpen State = iota
	StateActive
	StateClosed
)

// User-facing messages. The wording is part of the client contract; tests
// assert on it.
const (
	greeting           = "Hi! How can I help you?"
	msgInvalidJSON     = "⚠️ AI response was not valid JSON."
	msgNotUnderstood   = "⚠️ Sorry, I couldn't understand your request."
	msgNeedInfoPrefix  = "🛑 I need more information: "
	msgSessionLimited  = "⏳ You're sending messages too quickly. Please wait a moment and try again."
	msgUpstreamLimited = "⏳ The assistant is handling too many requests right now. Please try again shortly."
	msgInternalPrefix  = "❌ Internal error: "
)

// wire is the minimal bidirectional text channel a session runs over.
// ReadText blocks until the next inbound message or the connection fails.
type wire interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// completer produces a raw completion for an extraction prompt.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// dispatcher executes one validated action against the gateway.
type dispatcher interface {
	Execute(ctx context.Context, intent billing.Intent, params map[string]any) gateway.Result
}

// refresher mints the shared gateway token.
type refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// auditor records session and action history. May be nil (auditing off).
type auditor interface {
	RecordSessionOpen(ctx context.Context, sessionID, remoteAddr string) error
	RecordSessionClose(ctx context.Context, sessionID string) error
	WriteActionLog(ctx context.Context, sessionID, intent string, params map[string]any, statusCode int, result string) error
}

// Session drives one connection. It is owned by a single goroutine; nothing
// here is safe for concurrent use, and nothing needs to be, since turns are
// strictly sequential within a session.
type Session struct {
	id         string
	remoteAddr string
	wire       wire
	completer  completer
	dispatcher dispatcher
	auth       refresher
	limiter    *nlp.RateLimiter
	audit      auditor
	log        *slog.Logger
	state      State
}

// NewSession wires up a session for one accepted connection.
func NewSession(id, remoteAddr string, w wire, c completer, d dispatcher, auth refresher, limiter *nlp.RateLimiter, audit auditor) *Session {
	return &Session{
		id:         id,
		remoteAddr: remoteAddr,
		wire:       w,
		completer:  c,
		dispatcher: d,
		auth:       auth,
		limiter:    limiter,
		audit:      audit,
		log:        slog.With("session", id),
		state:      StateOpen,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Run executes the session until the client disconnects or a turn fails
// unrecoverably. It greets, acquires an initial token best-effort, then
// serves one turn per inbound message. Reconnecting is the client's job.
func (s *Session) Run(ctx context.Context) {
	defer func() {
		s.state = StateClosed
		if s.limiter != nil {
			s.limiter.Forget(s.id)
		}
		if s.audit != nil {
			if err := s.audit.RecordSessionClose(context.WithoutCancel(ctx), s.id); err != nil {
				s.log.Warn("audit: record session close", "err", err)
			}
		}
		s.log.Info("session closed")
	}()

	s.log.Info("session opened", "remote", s.remoteAddr)
	if s.audit != nil {
		if err := s.audit.RecordSessionOpen(ctx, s.id, s.remoteAddr); err != nil {
			s.log.Warn("audit: record session open", "err", err)
		}
	}

	if err := s.wire.WriteText(greeting); err != nil {
		s.log.Warn("greeting failed", "err", err)
		return
	}

	// Initial token acquisition. Best-effort: a failure here just means the
	// first gateway call runs into a 401 and triggers the refresh path.
	if _, err := s.auth.Refresh(ctx); err != nil {
		s.log.Warn("initial token acquisition failed", "err", err)
	}

	s.state = StateActive
	for {
		text, err := s.wire.ReadText()
		if err != nil {
			s.log.Info("connection closed", "err", err)
			return
		}

		if err := s.turn(ctx, text); err != nil {
			s.log.Error("turn failed, closing session", "err", err)
			// Best-effort notice; the connection may already be gone.
			if werr := s.wire.WriteText(msgInternalPrefix + err.Error()); werr != nil {
				s.log.Warn("could not deliver error notice", "err", werr)
			}
			return
		}
	}
}

// turn processes one inbound message end to end. A nil return means the
// session keeps serving; an error tears it down. Panics inside a turn are
// converted into errors so a bad payload cannot kill the process.
func (s *Session) turn(ctx context.Context, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in turn: %v", r)
		}
	}()

	s.log.Info("message received", "len", len(text))

	if s.limiter != nil && !s.limiter.Allow(s.id) {
		return s.wire.WriteText(msgSessionLimited)
	}

	raw, err := s.completer.Complete(ctx, nlp.BuildPrompt(text))
	if err != nil {
		if errors.Is(err, nlp.ErrRateLimit) {
			s.log.Warn("completion engine rate-limited")
			return s.wire.WriteText(msgUpstreamLimited)
		}
		return fmt.Errorf("completion engine: %w", err)
	}

	ext, err := nlp.ParseExtraction(raw)
	switch {
	case errors.Is(err, nlp.ErrMalformedOutput):
		s.log.Warn("malformed completion output", "err", err)
		return s.wire.WriteText(msgInvalidJSON)
	case errors.Is(err, nlp.ErrNotUnderstood):
		return s.wire.WriteText(msgNotUnderstood)
	case err != nil:
		return fmt.Errorf("parse extraction: %w", err)
	}

	// Top-level missing_info ends the turn before any dispatch.
	if ext.Missing != nil {
		return s.wire.WriteText(msgNeedInfoPrefix + strings.Join(ext.Missing, ", "))
	}

	// Actions run strictly in extraction order; each one succeeds or fails
	// on its own and must not block the ones after it.
	for _, action := range ext.Actions {
		if err := s.runAction(ctx, action, text); err != nil {
			return err
		}
	}
	return nil
}

// runAction validates, dispatches, and answers one action.
func (s *Session) runAction(ctx context.Context, action billing.Action, userText string) error {
	out := billing.Validate(action, userText)

	if len(out.Missing) > 0 {
		s.writeActionLog(ctx, action.Intent, action.Parameters, 0, "needs_info")
		return s.wire.WriteText(msgNeedInfoPrefix + strings.Join(out.Missing, ", "))
	}
	if out.SkipReason != "" {
		s.log.Info("action skipped", "intent", action.Intent)
		s.writeActionLog(ctx, action.Intent, action.Parameters, 0, "skipped")
		return s.wire.WriteText(out.SkipReason)
	}

	s.log.Info("dispatching action", "intent", action.Intent)
	res := s.dispatcher.Execute(ctx, action.Intent, out.Parameters)

	label := "failed"
	if res.StatusCode == http.StatusOK {
		label = "ok"
	}
	s.writeActionLog(ctx, action.Intent, out.Parameters, res.StatusCode, label)

	return s.wire.WriteText(billing.Format(action.Intent, res.Text(), out.Parameters))
}

// writeActionLog records the action outcome; audit failures are logged and
// never fail the turn.
func (s *Session) writeActionLog(ctx context.Context, intent billing.Intent, params map[string]any, status int, result string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.WriteActionLog(ctx, s.id, string(intent), params, status, result); err != nil {
		s.log.Warn("audit: write action log", "err", err)
	}
}
