package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/balance-tower/api"
	"github.com/wricardo/balance-tower/game/config"
	"github.com/wricardo/balance-tower/game/engine"
	"github.com/wricardo/balance-tower/game/service"
	"github.com/wricardo/balance-tower/game/session"
)

func newGameServer(t *testing.T) *httptest.Server {
	t.Helper()
	configs, err := config.NewManager("")
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewServer(service.NewGameService(session.NewManager(), configs), nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestPlayRounds(t *testing.T) {
	srv := newGameServer(t)
	client := NewClient(srv.URL)
	ctx := context.Background()

	state, err := client.NewGame(ctx, 3, "")
	require.NoError(t, err)

	final, err := PlayRounds(ctx, client, state.ID, 4, 0)
	require.NoError(t, err)

	for _, p := range final.Players {
		assert.Len(t, p.Tower, 4)
		assert.Zero(t, p.Tokens, "classic rules never exceed 3.0")
	}
	assert.Len(t, final.Log, 12)
	assert.Len(t, final.Deck, 12, "each placement consumed exactly one drawn block")
}

func TestPlayRounds_UnknownGame(t *testing.T) {
	srv := newGameServer(t)

	_, err := PlayRounds(context.Background(), NewClient(srv.URL), "nope1234", 1, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no game")
}

func TestNewGame_BadPlayers(t *testing.T) {
	srv := newGameServer(t)

	_, err := NewClient(srv.URL).NewGame(context.Background(), 9, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestStandings(t *testing.T) {
	long := engine.Block{Type: engine.Long, Size: 3, Weight: 3, Center: 1}
	small := engine.Block{Type: engine.Small, Size: 1, Weight: 1, Center: 0}

	state := &engine.GameState{
		ID: "abcd1234",
		Players: []*engine.Player{
			{ID: 0, Name: "P1", Tower: []engine.Block{long, long}, Tokens: 1},
			{ID: 1, Name: "P2", Tower: []engine.Block{long, small}},
			{ID: 2, Name: "P3", Tower: []engine.Block{small, small}},
		},
	}

	standings := Standings(state)
	require.Len(t, standings, 3)
	assert.Equal(t, "P3", standings[0].Name)
	assert.Equal(t, "P2", standings[1].Name)
	assert.Equal(t, "P1", standings[2].Name)

	var buf bytes.Buffer
	printStandings(&buf, state)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "1. P3")
	assert.Contains(t, lines[3], "tokens  1")
}
