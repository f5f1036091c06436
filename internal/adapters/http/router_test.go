package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mlevan/tandem/internal/app"
	"github.com/mlevan/tandem/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Mode:       "release",
		StaticPath: t.TempDir(),
		ReadLimit:  65536,
		PingPeriod: time.Minute,
		Secret:     "test-secret",
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := SetupRouter(ctx, cfg, app.NewOrchestrator())
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/signal"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, v map[string]any) {
	t.Helper()
	if err := c.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readEvent reads frames until one of the wanted type arrives, skipping
// unrelated broadcasts (connection counts, interleaved status updates).
func readEvent(t *testing.T, c *websocket.Conn, typ string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	_ = c.SetReadDeadline(deadline)
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", typ, err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		if m["type"] == typ {
			return m
		}
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}

func TestSignalingEndToEnd(t *testing.T) {
	ts := newTestServer(t)

	master := dial(t, ts)
	readEvent(t, master, "connectionCount")

	player := dial(t, ts)
	readEvent(t, player, "connectionCount")

	send(t, master, map[string]any{"type": "join", "room": "7", "role": "master", "name": "Ann"})
	if ev := readEvent(t, master, "roomStatusUpdate"); ev["master"] != "Ann" {
		t.Fatalf("join snapshot = %v", ev)
	}

	send(t, player, map[string]any{"type": "join", "room": "7", "role": "player", "name": "Bo"})
	if ev := readEvent(t, player, "roomStatusUpdate"); ev["player"] != "Bo" {
		t.Fatalf("join snapshot = %v", ev)
	}

	send(t, master, map[string]any{"type": "ready", "room": "7", "role": "master"})
	send(t, player, map[string]any{"type": "ready", "room": "7", "role": "player"})

	if ev := readEvent(t, master, "startSession"); ev["role"] != "master" {
		t.Fatalf("master start = %v", ev)
	}
	if ev := readEvent(t, player, "startSession"); ev["role"] != "player" {
		t.Fatalf("player start = %v", ev)
	}

	send(t, master, map[string]any{"type": "signal", "room": "7", "sdp": "OFFER"})
	if ev := readEvent(t, player, "signal"); ev["sdp"] != "OFFER" {
		t.Fatalf("relayed signal = %v", ev)
	}

	send(t, player, map[string]any{"type": "signal", "room": "7", "candidate": "cand:1"})
	if ev := readEvent(t, master, "signal"); ev["candidate"] != "cand:1" {
		t.Fatalf("relayed candidate = %v", ev)
	}

	player.Close()
	ev := readEvent(t, master, "partnerDisconnected")
	msg, _ := ev["message"].(string)
	if !strings.Contains(msg, "player") || !strings.Contains(msg, "Bo") {
		t.Fatalf("partnerDisconnected message = %q", msg)
	}
	if ev := readEvent(t, master, "navigate"); ev["path"] != "/lobby" {
		t.Fatalf("survivor navigate = %v", ev)
	}
}

func TestDuplicateRoleRejectedOverWire(t *testing.T) {
	ts := newTestServer(t)

	first := dial(t, ts)
	second := dial(t, ts)

	send(t, first, map[string]any{"type": "join", "room": "9", "role": "master", "name": "Ann"})
	readEvent(t, first, "roomStatusUpdate")

	send(t, second, map[string]any{"type": "join", "room": "9", "role": "master", "name": "Eve"})
	ev := readEvent(t, second, "roomError")
	if msg, _ := ev["error"].(string); msg == "" {
		t.Fatalf("roomError = %v", ev)
	}
}
