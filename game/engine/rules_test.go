package engine

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	if err := ValidateRules(rules); err != nil {
		t.Fatalf("Default rules should be valid: %v", err)
	}
	if rules.DeckSize() != 24 {
		t.Errorf("Expected deck size 24, got %d", rules.DeckSize())
	}
	if rules.TokenThreshold != 3.0 {
		t.Errorf("Expected threshold 3.0, got %v", rules.TokenThreshold)
	}

	expected := map[BlockType]Block{
		Small: {Small, 1, 1, 0},
		Rect:  {Rect, 2, 2, 0},
		Long:  {Long, 3, 3, 1},
		Wide:  {Wide, 2, 2, -1},
	}
	for kind, want := range expected {
		got, ok := rules.Lookup(kind)
		if !ok {
			t.Errorf("Missing %s in catalog", kind)
			continue
		}
		if got != want {
			t.Errorf("Catalog %s: expected %+v, got %+v", kind, want, got)
		}
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Rules)
	}{
		{"missing name", func(r *Rules) { r.Name = "" }},
		{"empty catalog", func(r *Rules) { r.Catalog = nil }},
		{"duplicate type", func(r *Rules) { r.Catalog = append(r.Catalog, r.Catalog[0]) }},
		{"untyped block", func(r *Rules) { r.Catalog[1].Type = "" }},
		{"zero size", func(r *Rules) { r.Catalog[0].Size = 0 }},
		{"zero weight", func(r *Rules) { r.Catalog[2].Weight = 0 }},
		{"zero copies", func(r *Rules) { r.CopiesPerKind = 0 }},
		{"negative threshold", func(r *Rules) { r.TokenThreshold = -1 }},
		{"min players zero", func(r *Rules) { r.MinPlayers = 0 }},
		{"max below min", func(r *Rules) { r.MaxPlayers = 0 }},
		{"default out of range", func(r *Rules) { r.DefaultPlayers = 9 }},
		{"negative rounds", func(r *Rules) { r.MaxRounds = -1 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rules := DefaultRules()
			test.mutate(rules)
			if err := ValidateRules(rules); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	if err := ValidateRules(nil); err == nil {
		t.Error("Expected error for nil rules")
	}
}

func TestResolveBlock(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name    string
		input   BlockInput
		want    Block
		wantErr bool
	}{
		{"type only", BlockInput{Type: Long}, Block{Long, 3, 3, 1}, false},
		{"full matching payload", BlockInput{Type: Wide, Size: intPtr(2), Weight: intPtr(2), Center: intPtr(-1)}, Block{Wide, 2, 2, -1}, false},
		{"partial matching payload", BlockInput{Type: Small, Weight: intPtr(1)}, Block{Small, 1, 1, 0}, false},
		{"missing type", BlockInput{Weight: intPtr(1)}, Block{}, true},
		{"unknown type", BlockInput{Type: "tower"}, Block{}, true},
		{"weight mismatch", BlockInput{Type: Long, Weight: intPtr(9)}, Block{}, true},
		{"center mismatch", BlockInput{Type: Rect, Center: intPtr(1)}, Block{}, true},
		{"size mismatch", BlockInput{Type: Small, Size: intPtr(3)}, Block{}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ResolveBlock(rules, test.input)
			if test.wantErr {
				if !errors.Is(err, ErrInvalidBlock) {
					t.Errorf("Expected ErrInvalidBlock, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("Expected %+v, got %+v", test.want, got)
			}
		})
	}
}
