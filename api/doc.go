// Package api provides HTTP REST API handlers for the Balance Tower game.
//
// The api package implements:
//   - JSON endpoints for game creation, draws and placements
//   - Game listing and rule set inspection
//   - WebSocket upgrade handling for live game feeds
//   - The embedded browser client
//
// Endpoints:
//
// Game Operations:
//   - POST /api/new_game - Create a game, body {"num_players": 2, "rules": "classic"} (both optional).
//     Rate limited per client IP when WithNewGameLimit is set; over budget returns 429
//   - GET /api/state/{id} - Full game state
//   - GET /api/draw/{id}/{pid} - Draw the next block from the shared deck
//   - POST /api/place/{id}/{pid} - Place a block; an empty body or {} draws one server-side
//
// Listing:
//   - GET /api/games - All games, ?sort=accessed|created&order=desc|asc&limit=N
//   - GET /api/rules - Active rule set, or ?id=<rules id>
//   - GET /api/rulesets - Every available rule set
//
// Other:
//   - GET /ws?game={id} - Live state updates for one game
//   - GET /healthz - Health check
//   - GET / - Browser client
//
// Placement Payload:
//
// A client may name the block it wants placed. Only "type" is required;
// any of size, weight or center that are sent must match the catalog:
//
//	{"type": "long", "size": 3, "weight": 3, "center": 1}
//
// Error Handling:
//
// Errors are returned as JSON with an "error" field. Unknown games are
// 404 {"error":"no game"}; bad player ids, blocks and player counts are
// 400; anything else is 500.
package api
