package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/faturabot/faturabot/internal/faturabot/nlp"
)

// RouteRegistrar is satisfied by *http.ServeMux and by the app's HTTP
// server, so the WebSocket endpoint can be mounted without importing the
// app package directly.
type RouteRegistrar interface {
	Handle(pattern string, handler http.Handler)
}

// Server accepts WebSocket connections on /ws and runs one Session per
// connection. Each connection is served by its own goroutine (the HTTP
// handler's); sessions share only the token cell behind the refresher and
// the rate limiter, both of which are concurrency-safe.
type Server struct {
	upgrader   websocket.Upgrader
	completer  completer
	dispatcher dispatcher
	auth       refresher
	limiter    *nlp.RateLimiter
	audit      auditor
}

// NewServer wires a WebSocket server over the shared collaborators.
// audit may be nil to disable the audit trail.
func NewServer(c completer, d dispatcher, auth refresher, limiter *nlp.RateLimiter, audit auditor) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser demo clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		completer:  c,
		dispatcher: d,
		auth:       auth,
		limiter:    limiter,
		audit:      audit,
	}
}

// RegisterRoutes mounts the /ws endpoint on the given registrar.
func (s *Server) RegisterRoutes(r RouteRegistrar) {
	r.Handle("/ws", http.HandlerFunc(s.handleWS))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := NewSession(
		uuid.NewString(), r.RemoteAddr, wsWire{conn},
		s.completer, s.dispatcher, s.auth, s.limiter, s.audit,
	)
	sess.Run(ctx)
}

// wsWire adapts a gorilla connection to the session's text channel. Binary
// frames are read as text; the session only ever deals in strings.
type wsWire struct {
	conn *websocket.Conn
}

func (w wsWire) ReadText() (string, error) {
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (w wsWire) WriteText(text string) error {
	return w.conn.WriteMessage(websocket.TextMessage, []byte(text))
}
