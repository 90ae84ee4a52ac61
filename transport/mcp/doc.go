// Package mcp provides the Model Context Protocol bridge for the Balance Tower game.
//
// The mcp package implements:
//   - An MCP server for AI agent integration
//   - Tool definitions that proxy the REST API
//   - Plain-text formatting of game state for agents
//
// MCP Tools:
//   - new_game: Start a game with optional player count and rule set
//   - game_state: Show towers, tokens, scores and the recent log
//   - draw_card: Draw the next block from the shared deck
//   - place_block: Place a block, or let the server draw one
//   - list_games: List games held in memory
//   - game_rules: Show a rule set and its catalog
//   - game_instructions: Explain the rules in detail
//
// Transport Modes:
//
// The same Client serves over stdio for local MCP clients and behind the
// server's /mcp HTTP endpoint. Either way every tool call becomes a REST
// request against the running game server.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
