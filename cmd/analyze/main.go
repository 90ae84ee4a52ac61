// Command analyze prints quick, human-readable heuristics about rule set
// files. For each rule set it lists the block catalog with each block's lean,
// then plays simulated games to estimate how often placements earn
// instability tokens and where towers end up.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/balance-tower/game/config"
	"github.com/wricardo/balance-tower/game/engine"
)

// SimulationOptions controls the Monte-Carlo run
type SimulationOptions struct {
	Games   int
	Rounds  int // placements per player per game; 0 uses the rules' max_rounds
	Players int // 0 uses the rules' default_players
	Seed    uint64
}

// Report summarizes one rule set
type Report struct {
	Name           string
	DeckSize       int
	TokenThreshold float64
	Leans          map[engine.BlockType]int
	ExpectedLean   float64 // mean lean of a card drawn from a fresh deck
	Players        int
	Rounds         int

	Placements        int
	TokenPlacements   int
	TokenRate         float64
	MeanInstability   float64 // final tower instability, averaged over players
	MeanTokens        float64 // tokens per player at the end of a game
	MeanScore         float64
	FirstTokenAverage float64 // mean round of a player's first token, over players who got one
	PlayersWithToken  int
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "Simulate games for rule set files and report token rates",
		ArgsUsage: "[rules.json ...]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "games", Value: 1000, Usage: "Games to simulate per rule set"},
			&cli.IntFlag{Name: "rounds", Usage: "Placements per player (default: the rules' max_rounds)"},
			&cli.IntFlag{Name: "players", Usage: "Players per game (default: the rules' default_players)"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "Random seed"},
			&cli.StringFlag{Name: "dir", Value: "configs", Usage: "Directory scanned when no files are given"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := SimulationOptions{
				Games:   int(cmd.Int("games")),
				Rounds:  int(cmd.Int("rounds")),
				Players: int(cmd.Int("players")),
				Seed:    uint64(cmd.Int("seed")),
			}

			files := cmd.Args().Slice()
			if len(files) == 0 {
				found, err := filepath.Glob(filepath.Join(cmd.String("dir"), "*.json"))
				if err != nil {
					return err
				}
				files = found
			}

			// The built-in rules are always analyzed first
			fmt.Printf("\n=== Analyzing %s (built-in) ===\n", config.BuiltinID)
			printReport(os.Stdout, Analyze(engine.DefaultRules(), opts))

			for _, file := range files {
				fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
				rules, err := config.LoadFile(file)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					continue
				}
				printReport(os.Stdout, Analyze(rules, opts))
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Analyze plays opts.Games simulated games under the rules. Every player
// draws and places one block per round, the way the browser client's auto
// round does.
func Analyze(rules *engine.Rules, opts SimulationOptions) Report {
	report := Report{
		Name:           rules.Name,
		DeckSize:       rules.DeckSize(),
		TokenThreshold: rules.TokenThreshold,
		Leans:          make(map[engine.BlockType]int),
		Players:        opts.Players,
		Rounds:         opts.Rounds,
	}

	leanSum := 0
	for _, b := range rules.Catalog {
		lean := engine.LeanOf(b)
		report.Leans[b.Type] = lean
		leanSum += lean
	}
	if len(rules.Catalog) > 0 {
		report.ExpectedLean = float64(leanSum) / float64(len(rules.Catalog))
	}

	if report.Players <= 0 {
		report.Players = rules.DefaultPlayers
	}
	if report.Rounds <= 0 {
		report.Rounds = rules.MaxRounds
	}
	if opts.Games <= 0 || report.Players <= 0 || report.Rounds <= 0 {
		return report
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	var instabilitySum, tokenSum, scoreSum float64
	firstTokenSum := 0

	for g := 0; g < opts.Games; g++ {
		eng, err := engine.NewEngine(fmt.Sprintf("sim%05d", g), report.Players, rules, rng)
		if err != nil {
			return report
		}

		firstToken := make([]int, report.Players)
		for round := 1; round <= report.Rounds; round++ {
			for p := 0; p < report.Players; p++ {
				before := eng.GetState().Players[p].Tokens
				result, err := eng.Place(p, eng.Draw())
				if err != nil {
					return report
				}
				report.Placements++
				if result.Tokens > before {
					report.TokenPlacements++
					if firstToken[p] == 0 {
						firstToken[p] = round
					}
				}
			}
		}

		for _, s := range eng.Summaries() {
			instabilitySum += s.Instability
			tokenSum += float64(s.Tokens)
			scoreSum += float64(s.Score)
		}
		for _, idx := range firstToken {
			if idx > 0 {
				report.PlayersWithToken++
				firstTokenSum += idx
			}
		}
	}

	playerGames := float64(opts.Games * report.Players)
	report.TokenRate = float64(report.TokenPlacements) / float64(report.Placements)
	report.MeanInstability = instabilitySum / playerGames
	report.MeanTokens = tokenSum / playerGames
	report.MeanScore = scoreSum / playerGames
	if report.PlayersWithToken > 0 {
		report.FirstTokenAverage = float64(firstTokenSum) / float64(report.PlayersWithToken)
	}

	return report
}

func printReport(w io.Writer, r Report) {
	fmt.Fprintf(w, "Name: %s\n", r.Name)
	fmt.Fprintf(w, "Deck Size: %d\n", r.DeckSize)
	fmt.Fprintf(w, "Token Threshold: %.2f\n", r.TokenThreshold)

	kinds := make([]string, 0, len(r.Leans))
	for k := range r.Leans {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	fmt.Fprintf(w, "Block leans (weight x |center|):\n")
	for _, k := range kinds {
		lean := r.Leans[engine.BlockType(k)]
		marker := ""
		if float64(lean) > r.TokenThreshold {
			marker = "  ⚠️  above threshold on its own"
		}
		fmt.Fprintf(w, "   %-8s %d%s\n", k, lean, marker)
	}
	fmt.Fprintf(w, "Expected lean per draw: %.2f\n", r.ExpectedLean)

	if r.Placements == 0 {
		fmt.Fprintf(w, "No simulation run\n")
		return
	}

	fmt.Fprintf(w, "Simulated: %d placements (%d players x %d rounds)\n", r.Placements, r.Players, r.Rounds)
	fmt.Fprintf(w, "Token rate: %.1f%% of placements\n", r.TokenRate*100)
	fmt.Fprintf(w, "Final instability: %.2f average\n", r.MeanInstability)
	fmt.Fprintf(w, "Tokens per player: %.2f | Score per player: %.2f\n", r.MeanTokens, r.MeanScore)

	if r.PlayersWithToken > 0 {
		fmt.Fprintf(w, "First token at round %.1f on average\n", r.FirstTokenAverage)
	}

	switch {
	case r.TokenRate == 0:
		fmt.Fprintf(w, "✅ No placement ever crossed the threshold\n")
	case r.TokenRate > 0.5:
		fmt.Fprintf(w, "⚠️  WARNING: most placements earn a token, consider raising the threshold\n")
	}
}
