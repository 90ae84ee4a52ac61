package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/balance-tower/game/engine"
	"github.com/wricardo/balance-tower/game/service"
)

func writeRulesFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("builtin only", func(t *testing.T) {
		manager, err := NewManager("")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.DefaultID() != BuiltinID {
			t.Errorf("Expected default id %s, got %s", BuiltinID, manager.DefaultID())
		}
		if manager.GetDefault().DeckSize() != 24 {
			t.Errorf("Expected classic deck of 24, got %d", manager.GetDefault().DeckSize())
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		if _, err := NewManager("/non/existent/path"); err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		dir := t.TempDir()
		writeRulesFile(t, dir, "plain.txt", "x")
		if _, err := NewManager(filepath.Join(dir, "plain.txt")); err == nil {
			t.Error("Expected error for non-directory path")
		}
	})

	t.Run("broken classic override", func(t *testing.T) {
		dir := t.TempDir()
		writeRulesFile(t, dir, "classic.json", `{"copies_per_kind": 0}`)
		if _, err := NewManager(dir); err == nil {
			t.Error("Expected error for invalid classic.json")
		}
	})
}

func TestManager_LoadRules(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "tall.json", `{
		"description": "Heavier longs",
		"catalog": [
			{"type": "small", "size": 1, "weight": 1, "center": 0},
			{"type": "long", "size": 3, "weight": 4, "center": 1}
		],
		"copies_per_kind": 5
	}`)
	writeRulesFile(t, dir, "typo.json", `{"copies_per_knd": 5}`)
	writeRulesFile(t, dir, "invalid.json", `{"token_threshold": -2}`)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("file rules with defaults filled", func(t *testing.T) {
		rules, err := manager.LoadRules("tall")
		if err != nil {
			t.Fatalf("Failed to load rules: %v", err)
		}
		if rules.Name != "tall" {
			t.Errorf("Expected name from filename, got %s", rules.Name)
		}
		if rules.DeckSize() != 10 {
			t.Errorf("Expected deck size 10, got %d", rules.DeckSize())
		}
		if rules.TokenThreshold != engine.DefaultTokenThreshold {
			t.Errorf("Expected default threshold, got %v", rules.TokenThreshold)
		}
		if rules.MaxPlayers != engine.DefaultMaxPlayers {
			t.Errorf("Expected default max players, got %d", rules.MaxPlayers)
		}
	})

	t.Run("json suffix accepted", func(t *testing.T) {
		if _, err := manager.LoadRules("tall.json"); err != nil {
			t.Errorf("Expected tall.json to resolve: %v", err)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := manager.LoadRules("typo")
		if !errors.Is(err, ErrInvalidRules) {
			t.Errorf("Expected ErrInvalidRules, got %v", err)
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		_, err := manager.LoadRules("invalid")
		if !errors.Is(err, ErrInvalidRules) {
			t.Errorf("Expected ErrInvalidRules, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := manager.LoadRules("nope")
		if !errors.Is(err, service.ErrRulesNotFound) {
			t.Errorf("Expected ErrRulesNotFound, got %v", err)
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		_, err := manager.LoadRules("../tall")
		if !errors.Is(err, service.ErrRulesNotFound) {
			t.Errorf("Expected ErrRulesNotFound, got %v", err)
		}
	})

	t.Run("cached", func(t *testing.T) {
		first, _ := manager.LoadRules("tall")
		second, _ := manager.LoadRules("tall")
		if first != second {
			t.Error("Expected cached rules to be returned")
		}
	})
}

func TestManager_ListRules(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "quick.json", `{"copies_per_kind": 2, "description": "Short games"}`)
	writeRulesFile(t, dir, "broken.json", `{not json`)
	writeRulesFile(t, dir, "notes.txt", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0755); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	infos, err := manager.ListRules()
	if err != nil {
		t.Fatalf("Failed to list rules: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 rule sets, got %d", len(infos))
	}
	if infos[0].RulesID != "classic" || infos[1].RulesID != "quick" {
		t.Errorf("Unexpected ids: %s, %s", infos[0].RulesID, infos[1].RulesID)
	}
	if infos[1].DeckSize != 8 || infos[1].Filename != "quick.json" {
		t.Errorf("Unexpected quick info: %+v", infos[1])
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "quick.json", `{"copies_per_kind": 2}`)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("missing"); err == nil {
		t.Error("Expected error for missing default")
	}
	if err := manager.SetDefault("quick"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if manager.DefaultID() != "quick" {
		t.Errorf("Expected default quick, got %s", manager.DefaultID())
	}
	if manager.GetDefault().DeckSize() != 8 {
		t.Errorf("Expected deck size 8, got %d", manager.GetDefault().DeckSize())
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "quick.json", `{"copies_per_kind": 2}`)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadRules("quick"); err != nil {
				t.Errorf("Concurrent load failed: %v", err)
			}
			manager.GetDefault()
			manager.ListRules()
		}()
	}
	wg.Wait()
}
