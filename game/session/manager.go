package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/balance-tower/game/engine"
	"github.com/wricardo/balance-tower/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// maxIDAttempts bounds how often Create regenerates an id on collision
const maxIDAttempts = 16

// Manager is the process-wide game store. Sessions are created on demand
// and live until the process exits.
type Manager struct {
	sessions map[string]*service.Session
	newID    func() string
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return NewManagerWithIDGenerator(generateSessionID)
}

// NewManagerWithIDGenerator creates a session manager with a custom id source
func NewManagerWithIDGenerator(newID func() string) *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		newID:    newID,
	}
}

// Create starts a new game with a fresh id, deck and players
func (m *Manager) Create(numPlayers int, rulesID string, rules *engine.Rules) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := ""
	for i := 0; i < maxIDAttempts; i++ {
		candidate := m.newID()
		if _, exists := m.sessions[candidate]; !exists {
			id = candidate
			break
		}
	}
	if id == "" {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(id, numPlayers, rules, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		RulesID:        rulesID,
		Engine:         eng,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[id] = session

	return session, nil
}

// Get retrieves a session by ID
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Count returns the number of sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// UpdateLastAccessed updates the last accessed time for a session.
// It takes the session lock, so callers must not already hold it.
func (m *Manager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}

	session.Lock()
	session.LastAccessedAt = time.Now()
	session.Unlock()

	return nil
}

// generateSessionID returns the first 8 characters of a random UUID
func generateSessionID() string {
	return uuid.NewString()[:engine.GameIDLength]
}
