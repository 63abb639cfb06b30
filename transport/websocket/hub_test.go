package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
	"github.com/wricardo/mcp-training/mazesolver/maze/service"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, session string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=" + session
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, session string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(session) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients for %s, got %d", want, session, hub.ClientCount(session))
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return msg
}

func TestHub_BroadcastSolve(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "ab12")
	waitForClients(t, hub, "ab12", 1)

	hub.BroadcastSolve("ab12", &service.SolveResult{
		Found: true,
		Cost:  8,
		Path:  []engine.Cell{{Row: 4, Col: 4}, {Row: 4, Col: 3}},
	})

	msg := readMessage(t, conn)
	if msg.Event != EventSolveResult || msg.SessionID != "ab12" {
		t.Errorf("Unexpected message %+v", msg)
	}
	if msg.Result == nil || msg.Result.Cost != 8 || len(msg.Result.Path) != 2 {
		t.Errorf("Unexpected result payload %+v", msg.Result)
	}
}

func TestHub_SessionIsolation(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv, "aaaa")
	b := dial(t, srv, "bbbb")
	waitForClients(t, hub, "aaaa", 1)
	waitForClients(t, hub, "bbbb", 1)

	hub.BroadcastEvent("bbbb", EventSessionDeleted, map[string]string{"id": "bbbb"})
	hub.BroadcastEvent("aaaa", EventSessionDeleted, map[string]string{"id": "aaaa"})

	if msg := readMessage(t, a); msg.SessionID != "aaaa" {
		t.Errorf("Client a received message for %s", msg.SessionID)
	}
	if msg := readMessage(t, b); msg.SessionID != "bbbb" || msg.Event != EventSessionDeleted {
		t.Errorf("Client b received %+v", msg)
	}
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "cccc")
	waitForClients(t, hub, "cccc", 1)

	conn.Close()
	waitForClients(t, hub, "cccc", 0)
}

func TestHub_StopIsIdempotent(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()
	hub.Stop()

	if n := hub.ClientCount("x"); n != 0 {
		t.Errorf("Expected 0 clients after stop, got %d", n)
	}
	// must not block once stopped
	hub.BroadcastEvent("x", EventSessionDeleted, nil)
}
