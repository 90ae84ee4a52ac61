package engine

import "math"

// ComputeInstability returns the mean of weight*|center| over the tower,
// rounded to two decimals. An empty tower is perfectly stable.
func ComputeInstability(tower []Block) float64 {
	if len(tower) == 0 {
		return 0
	}

	sum := 0
	for _, b := range tower {
		sum += b.Weight * abs(b.Center)
	}
	return round2(float64(sum) / float64(len(tower)))
}

// Score is the tower height minus the instability tokens collected
func Score(p *Player) int {
	return len(p.Tower) - p.Tokens
}

// Summarize builds the compact view of every player in the state
func Summarize(state *GameState) []PlayerSummary {
	result := make([]PlayerSummary, 0, len(state.Players))
	for _, p := range state.Players {
		result = append(result, PlayerSummary{
			ID:          p.ID,
			Name:        p.Name,
			Height:      len(p.Tower),
			Tokens:      p.Tokens,
			Score:       Score(p),
			Instability: ComputeInstability(p.Tower),
		})
	}
	return result
}

// CountKinds counts the blocks of each type in a pile
func CountKinds(blocks []Block) map[BlockType]int {
	counts := make(map[BlockType]int)
	for _, b := range blocks {
		counts[b.Type]++
	}
	return counts
}

// LeanOf is the instability contribution of a single block
func LeanOf(b Block) int {
	return b.Weight * abs(b.Center)
}

// round2 rounds exact halves to even, so 0.625 becomes 0.62
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// CloneState returns a deep copy of the state that shares no slices with
// the original
func CloneState(state *GameState) *GameState {
	if state == nil {
		return nil
	}

	players := make([]*Player, len(state.Players))
	for i, p := range state.Players {
		players[i] = &Player{
			ID:     p.ID,
			Name:   p.Name,
			Tower:  append([]Block{}, p.Tower...),
			Tokens: p.Tokens,
		}
	}

	return &GameState{
		ID:        state.ID,
		Players:   players,
		Round:     state.Round,
		MaxRounds: state.MaxRounds,
		Deck:      append([]Block{}, state.Deck...),
		Log:       append([]string{}, state.Log...),
	}
}
