package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/balance-tower/game/engine"
	"github.com/wricardo/balance-tower/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Balance Tower",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Balance Tower - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Stack the tallest tower you can while keeping it balanced. Every block
has a weight and an off-center offset; a tower whose average lean goes
above the threshold earns its owner an instability token. Score is
tower height minus tokens.

AVAILABLE TOOLS:
- new_game: Start a game (optional num_players, rules)
- game_state: Get the full state of a game
- draw_card: Draw the next block from the shared deck
- place_block: Place a block on a player's tower (omit block_type to let the server draw)
- list_games: List all games in memory
- game_rules: Show the active rule set and the block catalog
- game_instructions: Get the rules explained in detail`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Start a new game and return its id and initial state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"num_players": map[string]interface{}{
					"type":        "integer",
					"description": "Number of players (optional, defaults to the rule set's default)",
				},
				"rules": map[string]interface{}{
					"type":        "string",
					"description": "Rule set id (optional)",
				},
			},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current state of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "draw_card",
		Description: "Draw the next block from the game's shared deck",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"player_id": map[string]interface{}{
					"type":        "integer",
					"description": "Player drawing the block (0-based)",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleDrawCard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_block",
		Description: "Place a block on a player's tower and report the new instability",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"player_id": map[string]interface{}{
					"type":        "integer",
					"description": "Player whose tower receives the block (0-based)",
				},
				"block_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"small", "rect", "long", "wide"},
					"description": "Block to place (optional, the server draws one when omitted)",
				},
			},
			Required: []string{"game_id", "player_id"},
		},
	}, c.handlePlaceBlock)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all games held in memory",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Show a rule set and its block catalog",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rules": map[string]interface{}{
					"type":        "string",
					"description": "Rule set id (optional, defaults to the active rules)",
				},
			},
		},
	}, c.handleGameRules)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and strategy tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// arguments returns the tool arguments as a map, tolerating absent ones
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, name string) (int, bool) {
	v, ok := args[name].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// Tool handlers

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if n, ok := intArg(args, "num_players"); ok {
		body["num_players"] = n
	}
	if rules, _ := args["rules"].(string); rules != "" {
		body["rules"] = rules
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", "/api/new_game", body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game: %s\n\n%s", state.ID, formatGameState(&state))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", "/api/state/"+url.PathEscape(gameID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleDrawCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	playerID, _ := intArg(args, "player_id")

	var block engine.Block
	path := fmt.Sprintf("/api/draw/%s/%d", url.PathEscape(gameID), playerID)
	if err := c.apiCall(ctx, "GET", path, nil, &block); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Drew %s\nPlace it with place_block (block_type=%q)", formatBlock(block), block.Type)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handlePlaceBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	playerID, ok := intArg(args, "player_id")
	if !ok {
		return mcp.NewToolResultError("player_id is required"), nil
	}

	var body interface{}
	if blockType, _ := args["block_type"].(string); blockType != "" {
		body = map[string]string{"type": blockType}
	}

	var placed engine.PlaceResult
	path := fmt.Sprintf("/api/place/%s/%d", url.PathEscape(gameID), playerID)
	if err := c.apiCall(ctx, "POST", path, body, &placed); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatPlaceResult(playerID, &placed)

	// The narration line lives on the game log
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", "/api/state/"+url.PathEscape(gameID), nil, &state); err == nil && len(state.Log) > 0 {
		result += "\n" + state.Log[len(state.Log)-1]
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                 `json:"count"`
		Games []service.GameInfo `json:"games"`
	}

	if err := c.apiCall(ctx, "GET", "/api/games", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Games (%d):\n\n", response.Count)
	for _, g := range response.Games {
		result += fmt.Sprintf("- %s (Rules: %s, Players: %d, Deck: %d, Created: %s)\n",
			g.ID, g.RulesID, len(g.Players), g.DeckRemaining, g.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	path := "/api/rules"
	if id, _ := args["rules"].(string); id != "" {
		path += "?id=" + url.QueryEscape(id)
	}

	var rules engine.Rules
	if err := c.apiCall(ctx, "GET", path, nil, &rules); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatRules(&rules)

	var available struct {
		Count    int                 `json:"count"`
		Rulesets []service.RulesInfo `json:"rulesets"`
	}
	if err := c.apiCall(ctx, "GET", "/api/rulesets", nil, &available); err == nil {
		result += "\nAvailable rule sets:\n"
		for _, info := range available.Rulesets {
			result += fmt.Sprintf("• %s (%s) deck %d, threshold %.2f\n",
				info.RulesID, info.Name, info.DeckSize, info.TokenThreshold)
		}
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Balance Tower - Complete Instructions

GAME OBJECTIVE:
Build a tall tower without letting it lean too far. Score is tower height
minus the instability tokens you collected.

BLOCKS:
• small - size 1, weight 1, center 0 (perfectly balanced)
• rect  - size 2, weight 2, center 0 (perfectly balanced)
• long  - size 3, weight 3, center +1 (leans right)
• wide  - size 2, weight 2, center -1 (leans left)
The default deck holds 6 copies of each block, shuffled. When the deck
runs out it is silently replaced by a fresh shuffled deck.

INSTABILITY:
Each block contributes weight × |center|. A tower's instability is the
average contribution over all of its blocks, rounded to 2 decimals.
Balanced blocks pull the average down; leaning ones push it up.

TOKENS:
After every placement the tower's instability is recomputed. If it is
strictly greater than the threshold (3.0 by default) the owner gains one
instability token. Exactly 3.0 is still safe.

TURN FLOW:
1. draw_card to see the next block from the shared deck
2. place_block with that block_type on your tower
   (or place_block without block_type to draw and place in one step)
3. Pass to the next player

STRATEGY TIPS:
• Small and rect blocks never add lean; use them to dilute a tall tower's average
• A tower of long blocks sits exactly at 3.0; one heavier leaning block tips it over
• Tokens never go away, so an early token costs you for the whole game

Good luck keeping your tower standing!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatBlock(b engine.Block) string {
	return fmt.Sprintf("%s (size %d, weight %d, center %+d)", b.Type, b.Size, b.Weight, b.Center)
}

func formatGameState(state *engine.GameState) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Game %s\n", state.ID))
	sb.WriteString(fmt.Sprintf("Round: %d/%d | Deck: %d blocks\n\n", state.Round, state.MaxRounds, len(state.Deck)))

	sb.WriteString("PLAYERS:\n")
	for _, p := range state.Players {
		sb.WriteString(fmt.Sprintf("[%d] %s  height %d  tokens %d  instability %.2f  score %d\n",
			p.ID, p.Name, len(p.Tower), p.Tokens, engine.ComputeInstability(p.Tower), engine.Score(p)))
		if len(p.Tower) > 0 {
			kinds := make([]string, len(p.Tower))
			for i, b := range p.Tower {
				kinds[i] = string(b.Type)
			}
			sb.WriteString(fmt.Sprintf("    tower: %s\n", strings.Join(kinds, ", ")))
		}
	}

	if len(state.Log) > 0 {
		sb.WriteString("\nRECENT LOG:\n")
		start := len(state.Log) - 5
		if start < 0 {
			start = 0
		}
		for _, line := range state.Log[start:] {
			sb.WriteString("- " + line + "\n")
		}
	}

	return sb.String()
}

func formatPlaceResult(playerID int, result *engine.PlaceResult) string {
	return fmt.Sprintf("Placed on player %d\nInstability: %.2f | Tokens: %d",
		playerID, result.Instability, result.Tokens)
}

func formatRules(rules *engine.Rules) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Rules: %s\n", rules.Name))
	if rules.Description != "" {
		sb.WriteString(rules.Description + "\n")
	}
	sb.WriteString(fmt.Sprintf("Token threshold: %.2f\n", rules.TokenThreshold))
	sb.WriteString(fmt.Sprintf("Players: %d-%d (default %d)\n", rules.MinPlayers, rules.MaxPlayers, rules.DefaultPlayers))
	sb.WriteString(fmt.Sprintf("Deck: %d copies of each block (%d total)\n\n", rules.CopiesPerKind, rules.DeckSize()))

	sb.WriteString("CATALOG:\n")
	for _, b := range rules.Catalog {
		sb.WriteString(fmt.Sprintf("• %s  lean %d\n", formatBlock(b), engine.LeanOf(b)))
	}

	return sb.String()
}
