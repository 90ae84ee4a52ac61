package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/balance-tower/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Outbound messages buffered per client before it is dropped.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The game page may be served through a tunnel under a different host
		return true
	},
}

// Message is the envelope sent to watchers of a game
type Message struct {
	GameID    string            `json:"game_id"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID string
}

// Hub maintains the set of active clients and broadcasts messages.
// All map access happens on the Run goroutine.
type Hub struct {
	// Registered clients by game ID
	games map[string]map[*Client]bool

	// Outbound messages for a game
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Watcher count queries
	counts chan countRequest
}

type countRequest struct {
	gameID string
	reply  chan int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		games:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, sendBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case req := <-h.counts:
			req.reply <- len(h.games[req.gameID])
		}
	}
}

// ServeWS upgrades the request and attaches the connection to a game
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		gameID: gameID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastState queues a state update for every watcher of a game
func (h *Hub) BroadcastState(gameID string, state *engine.GameState) {
	h.broadcast <- &Message{
		GameID:    gameID,
		GameState: state,
		Event:     "state_update",
	}
}

// BroadcastEvent queues a custom event for every watcher of a game
func (h *Hub) BroadcastEvent(gameID string, event string, data interface{}) {
	h.broadcast <- &Message{
		GameID: gameID,
		Event:  event,
		Data:   data,
	}
}

// ClientCount reports how many watchers a game has. Requires Run.
func (h *Hub) ClientCount(gameID string) int {
	reply := make(chan int, 1)
	h.counts <- countRequest{gameID: gameID, reply: reply}
	return <-reply
}

// registerClient adds a client to a game
func (h *Hub) registerClient(client *Client) {
	if h.games[client.gameID] == nil {
		h.games[client.gameID] = make(map[*Client]bool)
	}
	h.games[client.gameID][client] = true

	log.Debug().
		Str("game", client.gameID).
		Int("clients", len(h.games[client.gameID])).
		Msg("websocket client registered")
}

// unregisterClient removes a client from a game
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.games[client.gameID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.games, client.gameID)
			}

			log.Debug().
				Str("game", client.gameID).
				Int("clients", len(clients)).
				Msg("websocket client unregistered")
		}
	}
}

// broadcastMessage sends a message to all clients of a game
func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.games[message.GameID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("game", message.GameID).Msg("failed to marshal websocket message")
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer
			h.unregisterClient(client)
		}
	}
}

// readPump drains the connection so pongs and close frames are processed
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Watchers are read-only; inbound messages are discarded
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("game", c.gameID).Msg("websocket read error")
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
