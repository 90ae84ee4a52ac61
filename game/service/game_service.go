package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/balance-tower/game/engine"
)

var (
	ErrGameNotFound  = errors.New("no game")
	ErrRulesNotFound = errors.New("rules not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	NewGame(ctx context.Context, numPlayers *int, rulesID string) (*engine.GameState, error)
	GetGame(ctx context.Context, gameID string) (*engine.GameState, error)
	ListGames(ctx context.Context) ([]*GameInfo, error)

	// Game Operations
	Draw(ctx context.Context, gameID string, playerID int) (*DrawResult, error)
	Place(ctx context.Context, gameID string, playerID int, block *engine.BlockInput) (*PlaceOutcome, error)

	// Rules
	ListRules(ctx context.Context) ([]*RulesInfo, error)
	GetRules(ctx context.Context, rulesID string) (*engine.Rules, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(numPlayers int, rulesID string, rules *engine.Rules) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Count() int
	UpdateLastAccessed(id string) error
}

// ConfigManager handles rule set loading
type ConfigManager interface {
	LoadRules(id string) (*engine.Rules, error)
	ListRules() ([]*RulesInfo, error)
	GetDefault() *engine.Rules
	DefaultID() string
}

// Session represents one game in the store. Callers must hold the session
// lock while touching Engine.
type Session struct {
	ID             string
	RulesID        string
	Engine         *engine.GameEngine
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Lock acquires the per-session lock
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session lock
func (s *Session) Unlock() { s.mu.Unlock() }
