package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/balance-tower/game/engine"
	"github.com/wricardo/balance-tower/game/service"
)

// BuiltinID is the id of the rule set compiled into the binary
const BuiltinID = "classic"

var ErrInvalidRules = errors.New("invalid rules")

// Manager handles rule set loading and caching
type Manager struct {
	rulesDir  string
	defaultID string
	rules     map[string]*engine.Rules
	mu        sync.RWMutex
}

// NewManager creates a new rules manager. An empty rulesDir serves only the
// built-in classic rules.
func NewManager(rulesDir string) (*Manager, error) {
	if rulesDir != "" {
		info, err := os.Stat(rulesDir)
		if err != nil {
			return nil, fmt.Errorf("rules directory does not exist: %s", rulesDir)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("rules path is not a directory: %s", rulesDir)
		}
	}

	m := &Manager{
		rulesDir:  rulesDir,
		defaultID: BuiltinID,
		rules:     make(map[string]*engine.Rules),
	}

	// Load default rules up front so a broken classic.json fails fast
	if _, err := m.LoadRules(BuiltinID); err != nil {
		return nil, fmt.Errorf("failed to load default rules: %w", err)
	}

	return m, nil
}

// LoadRules loads a rule set by id. Files in the rules directory take
// precedence over the built-in classic rules.
func (m *Manager) LoadRules(id string) (*engine.Rules, error) {
	id = strings.TrimSuffix(id, ".json")
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: %q", service.ErrRulesNotFound, id)
	}

	m.mu.RLock()
	if rules, exists := m.rules[id]; exists {
		m.mu.RUnlock()
		return rules, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rules, exists := m.rules[id]; exists {
		return rules, nil
	}

	var rules *engine.Rules
	if m.rulesDir != "" {
		path := filepath.Join(m.rulesDir, id+".json")
		loaded, err := LoadFile(path)
		switch {
		case err == nil:
			rules = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	if rules == nil {
		if id != BuiltinID {
			return nil, fmt.Errorf("%w: %s", service.ErrRulesNotFound, id)
		}
		rules = engine.DefaultRules()
	}

	m.rules[id] = rules
	return rules, nil
}

// ListRules returns information about all available rule sets
func (m *Manager) ListRules() ([]*service.RulesInfo, error) {
	ids := map[string]string{BuiltinID: ""}

	if m.rulesDir != "" {
		entries, err := os.ReadDir(m.rulesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			ids[strings.TrimSuffix(entry.Name(), ".json")] = entry.Name()
		}
	}

	result := make([]*service.RulesInfo, 0, len(ids))
	for id, filename := range ids {
		rules, err := m.LoadRules(id)
		if err != nil {
			// Skip invalid rule files
			continue
		}
		result = append(result, &service.RulesInfo{
			Filename:       filename,
			RulesID:        id,
			Name:           rules.Name,
			Description:    rules.Description,
			DeckSize:       rules.DeckSize(),
			TokenThreshold: rules.TokenThreshold,
			MinPlayers:     rules.MinPlayers,
			MaxPlayers:     rules.MaxPlayers,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RulesID < result[j].RulesID
	})
	return result, nil
}

// GetDefault returns the default rule set
func (m *Manager) GetDefault() *engine.Rules {
	rules, err := m.LoadRules(m.DefaultID())
	if err != nil {
		return engine.DefaultRules()
	}
	return rules
}

// DefaultID returns the id of the default rule set
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID
}

// SetDefault sets the default rule set by id
func (m *Manager) SetDefault(id string) error {
	if _, err := m.LoadRules(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = strings.TrimSuffix(id, ".json")
	return nil
}

// LoadFile reads and validates a single rules file. Fields missing from the
// file keep their classic values; unknown fields are rejected.
func LoadFile(path string) (*engine.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules := engine.DefaultRules()
	rules.Name = strings.TrimSuffix(filepath.Base(path), ".json")
	rules.Description = ""

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(rules); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidRules, filepath.Base(path), err)
	}

	if err := engine.ValidateRules(rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	return rules, nil
}
