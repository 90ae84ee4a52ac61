package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrInvalidPlayerCount = errors.New("invalid number of players")

// Engine provides the main interface for game operations
type Engine interface {
	// Game state
	GetState() *GameState
	GetRules() *Rules
	GetPlayer(playerID int) (*Player, error)
	Summaries() []PlayerSummary

	// Deck
	CreateDeck() []Block
	Draw() Block
	DeckRemaining() int

	// Towers
	Place(playerID int, block Block) (*PlaceResult, error)
}

// GameEngine implements the Engine interface over a single GameState
type GameEngine struct {
	state *GameState
	rules *Rules
	rng   *rand.Rand
}

// NewEngine creates a game with numPlayers fresh players and a shuffled deck.
// A nil rng falls back to a randomly seeded source.
func NewEngine(id string, numPlayers int, rules *Rules, rng *rand.Rand) (*GameEngine, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	if numPlayers < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayerCount, numPlayers)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e := &GameEngine{
		rules: rules,
		rng:   rng,
	}
	e.state = InitGameState(id, numPlayers, rules, e.CreateDeck())

	return e, nil
}

// InitGameState builds the initial state for a new game
func InitGameState(id string, numPlayers int, rules *Rules, deck []Block) *GameState {
	players := make([]*Player, numPlayers)
	for i := range players {
		players[i] = &Player{
			ID:    i,
			Name:  fmt.Sprintf("P%d", i+1),
			Tower: []Block{},
		}
	}

	return &GameState{
		ID:        id,
		Players:   players,
		Round:     0,
		MaxRounds: rules.MaxRounds,
		Deck:      deck,
		Log:       []string{},
	}
}

// CreateDeck returns copies_per_kind copies of every catalog block in a
// uniformly shuffled order
func CreateDeck(rules *Rules, rng *rand.Rand) []Block {
	deck := make([]Block, 0, rules.DeckSize())
	for i := 0; i < rules.CopiesPerKind; i++ {
		deck = append(deck, rules.Catalog...)
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// GetRules returns the rules this game is played with
func (e *GameEngine) GetRules() *Rules {
	return e.rules
}

// GetPlayer returns the player at the given seat
func (e *GameEngine) GetPlayer(playerID int) (*Player, error) {
	if playerID < 0 || playerID >= len(e.state.Players) {
		return nil, fmt.Errorf("%w: %d (game has %d players)", ErrInvalidPlayer, playerID, len(e.state.Players))
	}
	return e.state.Players[playerID], nil
}

// Summaries returns the compact view of every player
func (e *GameEngine) Summaries() []PlayerSummary {
	return Summarize(e.state)
}

// CreateDeck builds a fresh shuffled deck using the engine's rules and source
func (e *GameEngine) CreateDeck() []Block {
	return CreateDeck(e.rules, e.rng)
}

// DeckRemaining returns how many blocks are left in the draw pile
func (e *GameEngine) DeckRemaining() int {
	return len(e.state.Deck)
}

// Draw pops the last block of the deck. An empty deck is silently replaced
// by a fresh one first, so a draw always succeeds.
func (e *GameEngine) Draw() Block {
	if len(e.state.Deck) == 0 {
		e.state.Deck = e.CreateDeck()
	}

	last := len(e.state.Deck) - 1
	block := e.state.Deck[last]
	e.state.Deck = e.state.Deck[:last]
	return block
}

// Place stacks block on the player's tower and grants a token when the
// resulting instability is strictly above the threshold
func (e *GameEngine) Place(playerID int, block Block) (*PlaceResult, error) {
	player, err := e.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}

	player.Tower = append(player.Tower, block)
	instability := ComputeInstability(player.Tower)

	if instability > e.rules.TokenThreshold {
		player.Tokens++
		e.state.Log = append(e.state.Log, fmt.Sprintf("%s gained instability token (total %d)", player.Name, player.Tokens))
	} else {
		e.state.Log = append(e.state.Log, fmt.Sprintf("%s placed block safely", player.Name))
	}

	return &PlaceResult{
		Instability: instability,
		Tokens:      player.Tokens,
	}, nil
}
