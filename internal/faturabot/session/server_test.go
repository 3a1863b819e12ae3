package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/faturabot/faturabot/internal/faturabot/gateway"
)

// TestServer_WebSocketRoundTrip drives a real WebSocket connection through
// the server: greeting, one extraction turn, one reply.
func TestServer_WebSocketRoundTrip(t *testing.T) {
	completer := &stubCompleter{
		reply: `{"actions":[{"intent":"QueryBill","parameters":{"subscriberNo":"123","month":5,"year":2025}}]}`,
	}
	dispatcher := &stubDispatcher{
		result: gateway.Result{StatusCode: 200, Body: `{"totalAmount":120.5,"paidStatus":true}`},
	}
	srv := NewServer(completer, dispatcher, &stubRefresher{}, nil, nil)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, greetingMsg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if string(greetingMsg) != "Hi! How can I help you?" {
		t.Errorf("greeting = %q", greetingMsg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("bill for may 2025, subscriber 123")); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	want := "Your bill for 5/2025 amounts to 120.5 TL. Payment status: Paid ✅."
	if string(reply) != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
	if len(dispatcher.calls) != 1 {
		t.Errorf("dispatch calls = %d, want 1", len(dispatcher.calls))
	}
}

// TestServer_SessionEndsWithConnection checks that closing the client side
// tears the session down without further replies.
func TestServer_SessionEndsWithConnection(t *testing.T) {
	completer := &stubCompleter{reply: `{"intent":"missing_info","missing":["month"]}`}
	srv := NewServer(completer, &stubDispatcher{}, &stubRefresher{}, nil, nil)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	conn.Close()

	// The handler goroutine exits once the read loop observes the close.
	// Nothing to assert beyond the server not hanging; a second connection
	// must still be served.
	conn2, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("second dial: %v", err)
	}
	defer conn2.Close()
	conn2.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn2.ReadMessage(); err != nil {
		t.Fatalf("second greeting: %v", err)
	}
}
