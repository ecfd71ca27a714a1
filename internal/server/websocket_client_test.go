package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialPair starts a server that runs serve on the upgraded connection and
// returns a WebSocketClient for the dialing side.
func dialPair(t *testing.T, serve func(conn *websocket.Conn)) *WebSocketClient {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewWebSocketClient(conn, 0)
}

func TestWebSocketClient_ReadLine_EmptyMessages(t *testing.T) {
	client := dialPair(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(""))
		conn.WriteMessage(websocket.TextMessage, []byte("   "))
		conn.WriteMessage(websocket.TextMessage, []byte("\n\n\n"))
		conn.WriteMessage(websocket.TextMessage, []byte("describe"))
		time.Sleep(100 * time.Millisecond)
	})

	line, err := client.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "describe" {
		t.Errorf("ReadLine() = %q, want %q", line, "describe")
	}
}

func TestWebSocketClient_ReadLine_MultiLineMessage(t *testing.T) {
	client := dialPair(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("facts\n  facts house \ndescribe"))
		time.Sleep(100 * time.Millisecond)
	})

	for _, want := range []string{"facts", "facts house", "describe"} {
		line, err := client.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine failed: %v", err)
		}
		if line != want {
			t.Errorf("ReadLine() = %q, want %q", line, want)
		}
	}
}

func TestWebSocketClient_WriteLine(t *testing.T) {
	received := make(chan string, 1)
	client := dialPair(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- string(msg)
	})

	if err := client.WriteLine("house at top left of map"); err != nil {
		t.Fatalf("WriteLine failed: %v", err)
	}

	select {
	case msg := <-received:
		if msg != "house at top left of map" {
			t.Errorf("received %q, want %q", msg, "house at top left of map")
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for message")
	}
}

func TestWebSocketClient_ReadLimit(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64)))
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	client := NewWebSocketClient(conn, 16)
	if _, err := client.ReadLine(); err == nil {
		t.Error("ReadLine() should fail for a message over the read limit")
	}
}

func TestWebSocketClient_RemoteAddr(t *testing.T) {
	done := make(chan struct{})
	client := dialPair(t, func(conn *websocket.Conn) { <-done })
	defer close(done)

	if client.RemoteAddr() == "" {
		t.Error("RemoteAddr should not be empty")
	}
}
