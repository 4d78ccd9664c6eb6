package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/mapcolor/internal/events"
)

// clearTLSEnv keeps tests from loading certificates left over in the env.
func clearTLSEnv(t *testing.T) {
	t.Setenv("MAPCOLOR_TLS_CERT", "")
	t.Setenv("MAPCOLOR_TLS_KEY", "")
	SetTLSConfigForTest(nil)
}

// waitFor polls a condition until it returns true or timeout expires.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("timeout waiting for: %s", msg)
}

func dialEvents(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var e events.Event
	if err := json.Unmarshal(msg, &e); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	return e
}

func TestWebSocketReceivesRecentEvents(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()

	for i := 0; i < 5; i++ {
		events.Emit("info", "solve.requested", "", map[string]interface{}{"i": i})
	}

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()
	conn := dialEvents(t, server)
	defer conn.Close()

	for i := 0; i < 5; i++ {
		e := readEvent(t, conn)
		if e.Name != "solve.requested" {
			t.Errorf("expected 'solve.requested', got '%s'", e.Name)
		}
	}
}

func TestWebSocketReceivesNewEvents(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()
	conn := dialEvents(t, server)
	defer conn.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "solve.completed", "", map[string]interface{}{"request_id": "abc"})
	}()

	e := readEvent(t, conn)
	if e.Name != "solve.completed" {
		t.Errorf("expected 'solve.completed', got '%s'", e.Name)
	}
	if e.Fields["request_id"] != "abc" {
		t.Errorf("expected request_id 'abc', got '%v'", e.Fields["request_id"])
	}
}

func TestWebSocketDisconnectCleansUp(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()
	events.CloseAllSubscribers()

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()
	conn := dialEvents(t, server)

	go func() {
		time.Sleep(20 * time.Millisecond)
		events.Emit("info", "solve.requested", "", nil)
	}()
	if e := readEvent(t, conn); e.Name != "solve.requested" {
		t.Errorf("expected 'solve.requested', got '%s'", e.Name)
	}

	conn.Close()

	waitFor(t, 5*time.Second, func() bool {
		return events.SubscriberCount() == 0
	}, "subscriber count to return to 0 after close")
}

func TestWebSocketMultipleClients(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()

	conn1 := dialEvents(t, server)
	defer conn1.Close()
	conn2 := dialEvents(t, server)
	defer conn2.Close()

	waitFor(t, 2*time.Second, func() bool {
		return events.SubscriberCount() >= 2
	}, "both clients to subscribe")

	events.Emit("info", "bridge.request", "", map[string]interface{}{"request_id": "r1"})

	if e := readEvent(t, conn1); e.Name != "bridge.request" {
		t.Errorf("client1: expected 'bridge.request', got '%s'", e.Name)
	}
	if e := readEvent(t, conn2); e.Name != "bridge.request" {
		t.Errorf("client2: expected 'bridge.request', got '%s'", e.Name)
	}
}

func TestWebSocketClosedOnShutdown(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()
	conn := dialEvents(t, server)
	defer conn.Close()

	waitFor(t, 2*time.Second, func() bool {
		return events.SubscriberCount() >= 1
	}, "client to subscribe")

	events.CloseAllSubscribers()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}
