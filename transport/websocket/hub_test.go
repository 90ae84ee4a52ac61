package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/balance-tower/game/engine"
)

func newTestClient(hub *Hub, gameID string) *Client {
	return &Client{
		hub:    hub,
		gameID: gameID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func testState(id string) *engine.GameState {
	return &engine.GameState{
		ID: id,
		Players: []*engine.Player{
			{ID: 0, Name: "P1", Tower: []engine.Block{{Type: engine.Long, Size: 3, Weight: 3, Center: 1}}, Tokens: 0},
			{ID: 1, Name: "P2", Tower: []engine.Block{}, Tokens: 2},
		},
		MaxRounds: engine.DefaultMaxRounds,
		Deck:      []engine.Block{{Type: engine.Small, Size: 1, Weight: 1, Center: 0}},
		Log:       []string{"P1 placed block safely"},
	}
}

// waitForCount polls the hub until the game has the expected number of watchers
func waitForCount(t *testing.T, hub *Hub, gameID string, expected int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(gameID) == expected {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients for game %s, got %d", expected, gameID, hub.ClientCount(gameID))
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}

	if hub.games == nil {
		t.Error("Hub games map is nil")
	}

	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil || hub.counts == nil {
		t.Error("Hub channels must be initialized")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "game0001")

	hub.registerClient(client)

	if !hub.games["game0001"][client] {
		t.Error("Client was not registered in game")
	}

	if len(hub.games["game0001"]) != 1 {
		t.Errorf("Expected 1 client in game, got %d", len(hub.games["game0001"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "game0001")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.games["game0001"]; exists {
		t.Error("Game should have been cleaned up after last client unregistered")
	}

	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInGame(t *testing.T) {
	hub := NewHub()
	client1 := newTestClient(hub, "shared01")
	client2 := newTestClient(hub, "shared01")

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.games["shared01"]) != 2 {
		t.Errorf("Expected 2 clients in game, got %d", len(hub.games["shared01"]))
	}

	hub.unregisterClient(client1)

	if len(hub.games["shared01"]) != 1 {
		t.Errorf("Expected 1 client remaining in game, got %d", len(hub.games["shared01"]))
	}

	if !hub.games["shared01"][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	watcher := newTestClient(hub, "watched1")
	other := newTestClient(hub, "other001")

	hub.registerClient(watcher)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{GameID: "watched1", GameState: testState("watched1"), Event: "state_update"})

	select {
	case data := <-watcher.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}

		if message.GameID != "watched1" {
			t.Errorf("Expected game_id watched1, got %s", message.GameID)
		}

		if message.Event != "state_update" {
			t.Errorf("Expected event 'state_update', got %s", message.Event)
		}

		if len(message.GameState.Players) != 2 || message.GameState.Players[1].Tokens != 2 {
			t.Error("GameState not correctly transmitted")
		}

	default:
		t.Error("Watcher did not receive the message")
	}

	select {
	case <-other.send:
		t.Error("Watcher of another game should not receive the message")
	default:
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, gameID: "slow0001", send: make(chan []byte)}

	hub.registerClient(slow)
	hub.broadcastMessage(&Message{GameID: "slow0001", Event: "state_update"})

	if _, exists := hub.games["slow0001"]; exists {
		t.Error("Slow client should have been dropped")
	}
}

func TestHubBroadcastState(t *testing.T) {
	hub := NewHub()

	go hub.BroadcastState("state001", testState("state001"))

	select {
	case message := <-hub.broadcast:
		if message.GameID != "state001" || message.Event != "state_update" {
			t.Errorf("Unexpected message %+v", message)
		}
		if message.GameState == nil || message.GameState.ID != "state001" {
			t.Error("GameState missing from broadcast")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message received within timeout")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()

	go hub.BroadcastEvent("event001", "token_gained", "P1")

	select {
	case message := <-hub.broadcast:
		if message.GameID != "event001" {
			t.Errorf("Expected game_id 'event001', got %s", message.GameID)
		}
		if message.Event != "token_gained" {
			t.Errorf("Expected event 'token_gained', got %s", message.Event)
		}
		if message.Data != "P1" {
			t.Errorf("Expected data 'P1', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message received within timeout")
	}
}

func newWSServer(hub *Hub) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("game"))
	}))
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := newWSServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?game=ws000001"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitForCount(t, hub, "ws000001", 1)

	conn.Close()

	waitForCount(t, hub, "ws000001", 0)
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := newWSServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?game=msg00001"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitForCount(t, hub, "msg00001", 1)

	hub.BroadcastState("msg00001", testState("msg00001"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if message.GameID != "msg00001" {
		t.Errorf("Expected game_id 'msg00001', got %s", message.GameID)
	}

	tower := message.GameState.Players[0].Tower
	if len(tower) != 1 || tower[0].Type != engine.Long {
		t.Errorf("Tower not correctly received: %+v", tower)
	}

	if len(message.GameState.Log) != 1 {
		t.Errorf("Expected 1 log line, got %d", len(message.GameState.Log))
	}
}
