// Command autoplay plays Balance Tower against a running server through the
// REST API. Each round every player draws a block and places it on their own
// tower; the final standings are printed at the end.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/balance-tower/game/engine"
	"github.com/wricardo/balance-tower/logging"
)

// Client talks to the game server's REST API
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) NewGame(ctx context.Context, numPlayers int, rules string) (*engine.GameState, error) {
	req := map[string]interface{}{}
	if numPlayers > 0 {
		req["num_players"] = numPlayers
	}
	if rules != "" {
		req["rules"] = rules
	}

	var state engine.GameState
	if err := c.do(ctx, "POST", "/api/new_game", req, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) State(ctx context.Context, gameID string) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, "GET", "/api/state/"+gameID, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Draw(ctx context.Context, gameID string, playerID int) (engine.Block, error) {
	var block engine.Block
	err := c.do(ctx, "GET", fmt.Sprintf("/api/draw/%s/%d", gameID, playerID), nil, &block)
	return block, err
}

func (c *Client) Place(ctx context.Context, gameID string, playerID int, block engine.Block) (engine.PlaceResult, error) {
	var result engine.PlaceResult
	err := c.do(ctx, "POST", fmt.Sprintf("/api/place/%s/%d", gameID, playerID),
		engine.BlockInput{Type: block.Type}, &result)
	return result, err
}

// PlayRounds runs the given number of rounds and returns the final state
func PlayRounds(ctx context.Context, c *Client, gameID string, rounds int, delay time.Duration) (*engine.GameState, error) {
	state, err := c.State(ctx, gameID)
	if err != nil {
		return nil, err
	}

	for round := 1; round <= rounds; round++ {
		for _, p := range state.Players {
			block, err := c.Draw(ctx, gameID, p.ID)
			if err != nil {
				return nil, err
			}

			result, err := c.Place(ctx, gameID, p.ID, block)
			if err != nil {
				return nil, err
			}

			log.Debug().
				Int("round", round).
				Str("player", p.Name).
				Str("block", string(block.Type)).
				Float64("instability", result.Instability).
				Int("tokens", result.Tokens).
				Msg("placed")

			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
	}

	return c.State(ctx, gameID)
}

// Standings orders players by score, then by lower instability
func Standings(state *engine.GameState) []engine.PlayerSummary {
	summaries := engine.Summarize(state)
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Score != summaries[j].Score {
			return summaries[i].Score > summaries[j].Score
		}
		return summaries[i].Instability < summaries[j].Instability
	})
	return summaries
}

func printStandings(w io.Writer, state *engine.GameState) {
	fmt.Fprintf(w, "\nGame %s after %d log entries\n", state.ID, len(state.Log))
	for i, s := range Standings(state) {
		fmt.Fprintf(w, "%d. %-4s score %3d  height %3d  tokens %2d  instability %.2f\n",
			i+1, s.Name, s.Score, s.Height, s.Tokens, s.Instability)
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "Play rounds of Balance Tower against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("GAME_URL")},
			&cli.StringFlag{Name: "continue", Usage: "Keep playing an existing game by ID"},
			&cli.StringFlag{Name: "rules", Usage: "Rule set for a new game"},
			&cli.IntFlag{Name: "players", Usage: "Players in a new game (default: the rules' default)"},
			&cli.IntFlag{Name: "rounds", Value: engine.DefaultMaxRounds, Usage: "Rounds to play"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between placements"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.Setup(logging.Options{Out: os.Stderr, Debug: cmd.Bool("v")})

			client := NewClient(cmd.String("url"))
			log.Info().Str("url", cmd.String("url")).Msg("connecting to game server")

			gameID := cmd.String("continue")
			if gameID == "" {
				state, err := client.NewGame(ctx, int(cmd.Int("players")), cmd.String("rules"))
				if err != nil {
					return err
				}
				gameID = state.ID
				log.Info().Str("game", gameID).Int("players", len(state.Players)).Msg("created game")
			}

			final, err := PlayRounds(ctx, client, gameID, int(cmd.Int("rounds")), cmd.Duration("delay"))
			if err != nil {
				return err
			}

			printStandings(os.Stdout, final)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
