package service

import (
	"time"

	"github.com/wricardo/balance-tower/game/engine"
)

// GameInfo provides a compact listing entry for a game session
type GameInfo struct {
	ID             string                 `json:"id"`
	RulesID        string                 `json:"rules_id"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	DeckRemaining  int                    `json:"deck_remaining"`
	Players        []engine.PlayerSummary `json:"players"`
}

// DrawResult contains the drawn block and the game after the draw
type DrawResult struct {
	Block     engine.Block      `json:"block"`
	GameState *engine.GameState `json:"game_state"`
}

// PlaceOutcome contains the result of a placement
type PlaceOutcome struct {
	Result    engine.PlaceResult `json:"result"`
	Block     engine.Block       `json:"block"`
	Drawn     bool               `json:"drawn"` // true when the server drew the block itself
	PlayerID  int                `json:"player_id"`
	GameState *engine.GameState  `json:"game_state"`
}

// RulesInfo describes an available rule set
type RulesInfo struct {
	Filename       string  `json:"filename,omitempty"`
	RulesID        string  `json:"rules_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	DeckSize       int     `json:"deck_size"`
	TokenThreshold float64 `json:"token_threshold"`
	MinPlayers     int     `json:"min_players"`
	MaxPlayers     int     `json:"max_players"`
}
