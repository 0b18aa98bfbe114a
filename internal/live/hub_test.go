package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub).Serve()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_ReplaysLatestAndBroadcasts(t *testing.T) {
	hub := NewHub()
	hub.Publish("state", map[string]int{"seconds_left": 50})

	srv := newTestServer(t, hub)
	conn := dial(t, srv)

	msg := readMessage(t, conn)
	if msg["type"] != "state" {
		t.Fatalf("replayed type = %v, want state", msg["type"])
	}
	if payload := msg["payload"].(map[string]any); payload["seconds_left"] != float64(50) {
		t.Errorf("replayed payload = %v", payload)
	}

	waitForClients(t, hub, 1)
	hub.Publish("state", map[string]int{"seconds_left": 49})

	msg = readMessage(t, conn)
	if payload := msg["payload"].(map[string]any); payload["seconds_left"] != float64(49) {
		t.Errorf("broadcast payload = %v", payload)
	}
}

func TestHub_ReplaysLatestOfEachType(t *testing.T) {
	hub := NewHub()
	hub.Publish("state", map[string]int{"bankroll": 1000})
	hub.Publish("cooldown", map[string]int{"seconds_left": 50})
	hub.Publish("cooldown", map[string]int{"seconds_left": 49})

	srv := newTestServer(t, hub)
	conn := dial(t, srv)

	first := readMessage(t, conn)
	if first["type"] != "state" {
		t.Fatalf("first replayed type = %v, want state", first["type"])
	}
	second := readMessage(t, conn)
	if second["type"] != "cooldown" {
		t.Fatalf("second replayed type = %v, want cooldown", second["type"])
	}
	if payload := second["payload"].(map[string]any); payload["seconds_left"] != float64(49) {
		t.Errorf("replayed cooldown = %v, want the latest", payload)
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Close()
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after Close()", hub.ClientCount())
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after hub Close()")
	}

	// Publishing after close is a no-op
	hub.Publish("state", nil)
}
