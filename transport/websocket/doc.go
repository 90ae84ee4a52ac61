// Package websocket provides a live game feed for the Balance Tower game.
//
// The websocket package implements:
//   - Game-aware WebSocket connections
//   - State broadcasting after every draw and placement
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// A central Hub owns every connection. Registration, removal and fan-out
// all run on the Hub's Run goroutine; each client has its own read and
// write pumps.
//
// Message Protocol:
//
// Watchers are read-only. Every outgoing frame is one JSON Message:
//
//	{"game_id": "a1b2c3d4", "event": "state_update", "game_state": {...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("game"))
//	})
//
//	hub.BroadcastState(gameID, state)
package websocket
