package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/balance-tower/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// NewGame creates a new game session. A nil numPlayers uses the rule set's default.
func (s *gameServiceImpl) NewGame(ctx context.Context, numPlayers *int, rulesID string) (*engine.GameState, error) {
	rules, rulesID, err := s.resolveRules(rulesID)
	if err != nil {
		return nil, err
	}

	n := rules.DefaultPlayers
	if numPlayers != nil {
		n = *numPlayers
	}
	if n < rules.MinPlayers || n > rules.MaxPlayers {
		return nil, fmt.Errorf("%w: num_players must be between %d and %d, got %d",
			engine.ErrInvalidPlayerCount, rules.MinPlayers, rules.MaxPlayers, n)
	}

	sess, err := s.sessions.Create(n, rulesID, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()

	log.Info().
		Str("game", sess.ID).
		Str("rules", rulesID).
		Int("players", n).
		Msg("game created")

	return engine.CloneState(sess.Engine.GetState()), nil
}

// GetGame returns a snapshot of the game state
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID string) (*engine.GameState, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	return engine.CloneState(sess.Engine.GetState()), nil
}

// ListGames returns every game in the store, most recently used first
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	sessions := s.sessions.List()
	result := make([]*GameInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, &GameInfo{
			ID:             sess.ID,
			RulesID:        sess.RulesID,
			CreatedAt:      sess.CreatedAt,
			LastAccessedAt: sess.LastAccessedAt,
			DeckRemaining:  sess.Engine.DeckRemaining(),
			Players:        sess.Engine.Summaries(),
		})
		sess.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastAccessedAt.After(result[j].LastAccessedAt)
	})

	return result, nil
}

// Draw takes the next block from the shared deck. The player id is
// accepted for symmetry with Place but does not affect the draw.
func (s *gameServiceImpl) Draw(ctx context.Context, gameID string, playerID int) (*DrawResult, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	block := sess.Engine.Draw()

	log.Debug().
		Str("game", gameID).
		Int("player", playerID).
		Str("block", string(block.Type)).
		Int("deck", sess.Engine.DeckRemaining()).
		Msg("draw")

	return &DrawResult{
		Block:     block,
		GameState: engine.CloneState(sess.Engine.GetState()),
	}, nil
}

// Place stacks a block on a player's tower. A nil block makes the server
// draw one from the deck first.
func (s *gameServiceImpl) Place(ctx context.Context, gameID string, playerID int, input *engine.BlockInput) (*PlaceOutcome, error) {
	sess, err := s.session(gameID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	eng := sess.Engine

	// Reject a bad seat before drawing so a failed request leaves the deck alone
	if _, err := eng.GetPlayer(playerID); err != nil {
		return nil, err
	}

	var block engine.Block
	drawn := input == nil
	if drawn {
		block = eng.Draw()
	} else {
		block, err = engine.ResolveBlock(eng.GetRules(), *input)
		if err != nil {
			return nil, err
		}
	}

	result, err := eng.Place(playerID, block)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("game", gameID).
		Int("player", playerID).
		Str("block", string(block.Type)).
		Bool("drawn", drawn).
		Float64("instability", result.Instability).
		Int("tokens", result.Tokens).
		Msg("place")

	return &PlaceOutcome{
		Result:    *result,
		Block:     block,
		Drawn:     drawn,
		PlayerID:  playerID,
		GameState: engine.CloneState(eng.GetState()),
	}, nil
}

// ListRules returns all available rule sets
func (s *gameServiceImpl) ListRules(ctx context.Context) ([]*RulesInfo, error) {
	return s.configs.ListRules()
}

// GetRules returns a rule set by id; an empty id returns the default
func (s *gameServiceImpl) GetRules(ctx context.Context, rulesID string) (*engine.Rules, error) {
	rules, _, err := s.resolveRules(rulesID)
	return rules, err
}

// session looks a game up and marks it as accessed
func (s *gameServiceImpl) session(gameID string) (*Session, error) {
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	if err := s.sessions.UpdateLastAccessed(gameID); err != nil {
		log.Warn().Err(err).Str("game", gameID).Msg("failed to update last access")
	}

	return sess, nil
}

func (s *gameServiceImpl) resolveRules(rulesID string) (*engine.Rules, string, error) {
	if rulesID == "" {
		return s.configs.GetDefault(), s.configs.DefaultID(), nil
	}

	rules, err := s.configs.LoadRules(rulesID)
	if err != nil {
		return nil, "", err
	}
	return rules, rulesID, nil
}
