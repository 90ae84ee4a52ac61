// Package service provides the business logic layer for the Balance Tower game.
//
// The service package implements:
//   - Multi-game session orchestration
//   - Rule set selection
//   - Draw and placement processing with block validation
//   - Per-game locking and state snapshots
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles game creation and retrieval.
// ConfigManager manages rule set loading.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Every operation takes the per-game lock, mutates or reads
// the engine, and hands back a deep copy of the state so callers can encode
// it without racing the next request.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	state, err := gameService.NewGame(ctx, nil, "")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	outcome, err := gameService.Place(ctx, state.ID, 0, nil)
//
// Errors:
//
// Unknown games surface as ErrGameNotFound. A bad seat surfaces as
// engine.ErrInvalidPlayer, a malformed block as engine.ErrInvalidBlock and
// an out-of-range player count as engine.ErrInvalidPlayerCount.
package service
