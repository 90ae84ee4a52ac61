package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPlayer = errors.New("invalid player")
	ErrInvalidBlock  = errors.New("invalid block")
)

// Rules holds the tunable parameters of a game. The zero value is not
// usable; start from DefaultRules.
type Rules struct {
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Catalog        []Block `json:"catalog"`
	CopiesPerKind  int     `json:"copies_per_kind"`
	TokenThreshold float64 `json:"token_threshold"`
	DefaultPlayers int     `json:"default_players"`
	MinPlayers     int     `json:"min_players"`
	MaxPlayers     int     `json:"max_players"`
	MaxRounds      int     `json:"max_rounds"`
}

// DefaultCatalog returns the four built-in block kinds
func DefaultCatalog() []Block {
	return []Block{
		{Type: Small, Size: 1, Weight: 1, Center: 0},
		{Type: Rect, Size: 2, Weight: 2, Center: 0},
		{Type: Long, Size: 3, Weight: 3, Center: 1},
		{Type: Wide, Size: 2, Weight: 2, Center: -1},
	}
}

// DefaultRules returns the classic rule set
func DefaultRules() *Rules {
	return &Rules{
		Name:           "classic",
		Description:    "Four block kinds, six copies each, a token above 3.0 instability",
		Catalog:        DefaultCatalog(),
		CopiesPerKind:  DefaultCopiesPerKind,
		TokenThreshold: DefaultTokenThreshold,
		DefaultPlayers: DefaultPlayers,
		MinPlayers:     DefaultMinPlayers,
		MaxPlayers:     DefaultMaxPlayers,
		MaxRounds:      DefaultMaxRounds,
	}
}

// DeckSize is the number of blocks in a freshly built deck
func (r *Rules) DeckSize() int {
	return len(r.Catalog) * r.CopiesPerKind
}

// Lookup returns the catalog entry for a block type
func (r *Rules) Lookup(t BlockType) (Block, bool) {
	for _, b := range r.Catalog {
		if b.Type == t {
			return b, true
		}
	}
	return Block{}, false
}

// ValidateRules checks a rule set for correctness and playability
func ValidateRules(rules *Rules) error {
	if rules == nil {
		return fmt.Errorf("rules validation: rules are required")
	}
	if rules.Name == "" {
		return fmt.Errorf("rules validation: name is required")
	}
	if len(rules.Catalog) == 0 {
		return fmt.Errorf("rules validation: catalog must contain at least one block kind")
	}

	seen := make(map[BlockType]bool, len(rules.Catalog))
	for i, b := range rules.Catalog {
		if b.Type == "" {
			return fmt.Errorf("rules validation: catalog[%d] has no type", i)
		}
		if seen[b.Type] {
			return fmt.Errorf("rules validation: duplicate block type %q", b.Type)
		}
		seen[b.Type] = true
		if b.Size <= 0 {
			return fmt.Errorf("rules validation: block %q size must be positive, got %d", b.Type, b.Size)
		}
		if b.Weight <= 0 {
			return fmt.Errorf("rules validation: block %q weight must be positive, got %d", b.Type, b.Weight)
		}
	}

	if rules.CopiesPerKind <= 0 {
		return fmt.Errorf("rules validation: copies_per_kind must be positive, got %d", rules.CopiesPerKind)
	}
	if rules.TokenThreshold < 0 {
		return fmt.Errorf("rules validation: token_threshold must not be negative, got %.2f", rules.TokenThreshold)
	}
	if rules.MinPlayers < 1 {
		return fmt.Errorf("rules validation: min_players must be at least 1, got %d", rules.MinPlayers)
	}
	if rules.MaxPlayers < rules.MinPlayers {
		return fmt.Errorf("rules validation: max_players (%d) must be >= min_players (%d)", rules.MaxPlayers, rules.MinPlayers)
	}
	if rules.DefaultPlayers < rules.MinPlayers || rules.DefaultPlayers > rules.MaxPlayers {
		return fmt.Errorf("rules validation: default_players must be between %d and %d, got %d",
			rules.MinPlayers, rules.MaxPlayers, rules.DefaultPlayers)
	}
	if rules.MaxRounds < 0 {
		return fmt.Errorf("rules validation: max_rounds must not be negative, got %d", rules.MaxRounds)
	}

	return nil
}

// ResolveBlock turns a client-submitted block into a catalog block.
// The type must exist in the catalog and every supplied numeric field
// must agree with the catalog entry.
func ResolveBlock(rules *Rules, in BlockInput) (Block, error) {
	if in.Type == "" {
		return Block{}, fmt.Errorf("%w: type is required", ErrInvalidBlock)
	}

	block, ok := rules.Lookup(in.Type)
	if !ok {
		return Block{}, fmt.Errorf("%w: unknown type %q", ErrInvalidBlock, in.Type)
	}

	check := func(field string, got *int, want int) error {
		if got != nil && *got != want {
			return fmt.Errorf("%w: %s %s must be %d, got %d", ErrInvalidBlock, in.Type, field, want, *got)
		}
		return nil
	}
	if err := check("size", in.Size, block.Size); err != nil {
		return Block{}, err
	}
	if err := check("weight", in.Weight, block.Weight); err != nil {
		return Block{}, err
	}
	if err := check("center", in.Center, block.Center); err != nil {
		return Block{}, err
	}

	return block, nil
}
