// Command validate provides a small CLI that validates rule set JSON files.
// It checks:
//   - JSON structure, with unknown fields rejected
//   - Catalog sanity (named, unique, positive size and weight)
//   - Deck, threshold and player-count constraints
//   - Balance: blocks that earn a token on their own, and rule sets where no
//     tower can ever cross the threshold
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/balance-tower/game/config"
	"github.com/wricardo/balance-tower/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors holds the problems that make the file invalid; Notes holds
// informational lines (prefixed with ✓ or ⚠) that never fail validation.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
}

// validateRulesFile loads and validates a single rules JSON file
func validateRulesFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
		Notes:  []string{},
	}

	rules, err := config.LoadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Notes = append(result.Notes, fmt.Sprintf("✓ %s: %d block kinds, deck of %d",
		rules.Name, len(rules.Catalog), rules.DeckSize()))
	result.Notes = append(result.Notes, balanceNotes(rules)...)

	return result
}

// balanceNotes reports how the catalog relates to the token threshold
func balanceNotes(rules *engine.Rules) []string {
	var notes []string

	maxLean := 0
	var tippers []string
	for _, b := range rules.Catalog {
		lean := engine.LeanOf(b)
		if lean > maxLean {
			maxLean = lean
		}
		if float64(lean) > rules.TokenThreshold {
			tippers = append(tippers, fmt.Sprintf("%s (lean %d)", b.Type, lean))
		}
	}

	if len(tippers) > 0 {
		notes = append(notes, fmt.Sprintf("⚠ Earns a token on an empty tower: %s", strings.Join(tippers, ", ")))
	}

	// The instability is a mean of leans, so it can never exceed the largest one
	if float64(maxLean) <= rules.TokenThreshold {
		notes = append(notes, fmt.Sprintf("⚠ No tower can exceed threshold %.2f (largest lean is %d); tokens are impossible",
			rules.TokenThreshold, maxLean))
	} else {
		notes = append(notes, fmt.Sprintf("✓ Tokens reachable: largest lean %d exceeds threshold %.2f",
			maxLean, rules.TokenThreshold))
	}

	return notes
}

// run validates every file and prints a concise report. It reports whether
// all files were valid.
func run(files []string) bool {
	allValid := true
	for _, file := range files {
		result := validateRulesFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, note := range result.Notes {
				fmt.Println("  " + note)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All rule sets are valid!")
	} else {
		fmt.Println("❌ Some rule sets have errors")
	}
	return allValid
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "Validate rule set JSON files",
		ArgsUsage: "[rules.json ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "../configs", Usage: "Directory scanned when no files are given"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				found, err := filepath.Glob(filepath.Join(cmd.String("dir"), "*.json"))
				if err != nil {
					return fmt.Errorf("error finding rules files: %w", err)
				}
				files = found
			}

			if len(files) == 0 {
				return fmt.Errorf("no rules files found")
			}

			if !run(files) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
