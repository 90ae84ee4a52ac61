package engine

// BlockType names one of the fixed block kinds in the catalog
type BlockType string

const (
	Small BlockType = "small"
	Rect  BlockType = "rect"
	Long  BlockType = "long"
	Wide  BlockType = "wide"

	// Rule defaults
	DefaultCopiesPerKind  = 6
	DefaultTokenThreshold = 3.0
	DefaultPlayers        = 2
	DefaultMinPlayers     = 1
	DefaultMaxPlayers     = 6
	DefaultMaxRounds      = 8
	GameIDLength          = 8
)

// Block is a single drawable piece. Blocks are values; once drawn they are
// copied into a tower and never modified.
type Block struct {
	Type   BlockType `json:"type"`
	Size   int       `json:"size"`
	Weight int       `json:"weight"`
	Center int       `json:"center"`
}

// BlockInput is a client-submitted block. Numeric fields are optional and
// filled from the catalog when omitted.
type BlockInput struct {
	Type   BlockType `json:"type"`
	Size   *int      `json:"size,omitempty"`
	Weight *int      `json:"weight,omitempty"`
	Center *int      `json:"center,omitempty"`
}

// Player is one seat at the table
type Player struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Tower  []Block `json:"tower"`
	Tokens int     `json:"tokens"`
}

// GameState represents the complete state of one game
type GameState struct {
	ID        string    `json:"id"`
	Players   []*Player `json:"players"`
	Round     int       `json:"round"`
	MaxRounds int       `json:"max_rounds"`
	Deck      []Block   `json:"deck"`
	Log       []string  `json:"log"`
}

// PlaceResult is returned after a block lands on a tower
type PlaceResult struct {
	Instability float64 `json:"instability"`
	Tokens      int     `json:"tokens"`
}

// PlayerSummary is a compact per-player view used by listings and tools
type PlayerSummary struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Height      int     `json:"height"`
	Tokens      int     `json:"tokens"`
	Score       int     `json:"score"`
	Instability float64 `json:"instability"`
}
