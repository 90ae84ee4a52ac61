// Package engine provides the core game logic for the Balance Tower game.
//
// The engine package implements the game mechanics including:
//   - The block catalog and rule set
//   - Deck construction, shuffling and draw-with-reshuffle
//   - Tower placement and instability scoring
//   - Token accounting and the in-game narration log
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState represents one game, Rules defines
// the catalog and thresholds the game is played with.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine("a1b2c3d4", 2, engine.DefaultRules(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	block := gameEngine.Draw()
//	result, err := gameEngine.Place(0, block)
//
// Game Rules:
//
// Every player owns a tower. Blocks are drawn from a shared deck that is
// rebuilt and reshuffled whenever it runs out. A tower's instability is the
// mean of weight*|center| over its blocks; each placement that leaves the
// tower above the threshold (3.0 by default) costs the player one token.
// A player's score is tower height minus tokens.
package engine
