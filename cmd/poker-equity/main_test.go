package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerequity/analysis"
	"github.com/lox/pokerequity/internal/advisor"
	"github.com/lox/pokerequity/internal/config"
	"github.com/lox/pokerequity/internal/randutil"
	"github.com/lox/pokerequity/observation"
	"github.com/lox/pokerequity/poker"
	"github.com/lox/pokerequity/strategy"
)

func TestParseHole(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		hasError bool
	}{
		{name: "Concatenated", input: "AcKh"},
		{name: "Spaced", input: "Ac Kh"},
		{name: "Too many cards", input: "AcKhQd", hasError: true},
		{name: "Too few cards", input: "Ac", hasError: true},
		{name: "Invalid card", input: "AcXy", hasError: true},
		{name: "Duplicate", input: "AcAc", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := parseHole(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, cards, 2)
		})
	}
}

func TestParseBoard(t *testing.T) {
	board, err := parseBoard("")
	require.NoError(t, err)
	assert.Empty(t, board)

	board, err = parseBoard("Td7s8h")
	require.NoError(t, err)
	assert.Equal(t, []string{"Td", "7s", "8h"}, poker.Codes(board))

	_, err = parseBoard("2c3c4c5c6c7c")
	assert.ErrorIs(t, err, analysis.ErrInvalidBoardLength)
}

func TestParseActions(t *testing.T) {
	actions, err := parseActions("fold, call:20,raise:40,")
	require.NoError(t, err)
	assert.Equal(t, []strategy.AvailableAction{
		{Kind: strategy.Fold},
		{Kind: strategy.Call, Amount: 20},
		{Kind: strategy.Bet, Amount: 40},
	}, actions)

	for _, bad := range []string{"shove", "call:lots", "bet:-5"} {
		_, err := parseActions(bad)
		assert.Error(t, err, bad)
	}
}

func TestCompleteBoard(t *testing.T) {
	hero := poker.MustParseCards("As", "Kd")
	board := poker.MustParseCards("2c", "7h")
	dead := poker.MustParseCards("Qh", "Qd")

	full, err := completeBoard(randutil.New(5), hero, board, dead)
	require.NoError(t, err)
	require.Len(t, full, 5)
	assert.Equal(t, board, full[:2], "known cards keep their positions")

	used := poker.NewHand(hero...) | poker.NewHand(dead...)
	seen := poker.NewHand(full...)
	assert.Equal(t, 5, seen.CountCards(), "no duplicates")
	assert.Zero(t, used&seen, "no hero or dead cards on the board")

	again, err := completeBoard(randutil.New(5), hero, board, dead)
	require.NoError(t, err)
	assert.Equal(t, full, again)

	river := poker.MustParseCards("2c", "7h", "9s", "Tc", "Jd")
	same, err := completeBoard(randutil.New(5), hero, river, nil)
	require.NoError(t, err)
	assert.Equal(t, river, same)
}

func TestDecide(t *testing.T) {
	var out bytes.Buffer
	cmd := DecideCmd{Equity: 0.75, Actions: "check,bet:10", Pot: 100, JSON: true}
	require.NoError(t, cmd.decide(&out, strategy.DefaultPolicy()))

	var decision observation.ActionDecision
	require.NoError(t, json.Unmarshal(out.Bytes(), &decision))
	assert.Equal(t, "bet", decision.Kind)
	assert.Equal(t, "pot", decision.BetSizeTier)
	assert.Equal(t, 100, decision.BetAmount)

	out.Reset()
	cmd = DecideCmd{Equity: 0.45, Actions: "fold,call:50", Pot: 100}
	require.NoError(t, cmd.decide(&out, strategy.DefaultPolicy()))
	assert.Contains(t, out.String(), "fold")
	assert.Contains(t, out.String(), "33.3%")

	cmd = DecideCmd{Equity: 1.5, Actions: "fold"}
	assert.Error(t, cmd.decide(&out, strategy.DefaultPolicy()))
}

func TestDisplayOdds(t *testing.T) {
	var out bytes.Buffer
	displayOdds(&out, oddsView{
		hero:        poker.MustParseCards("As", "Kd"),
		board:       poker.MustParseCards("Td", "7s", "8h"),
		opponent:    analysis.RandomOpponent(),
		result:      analysis.EquityResult{Wins: 6, Ties: 1, Losses: 3, Share: 6.5, Trials: 10},
		description: "High Card",
		elapsed:     1500 * time.Microsecond,
	})

	text := out.String()
	assert.Contains(t, text, "As Kd")
	assert.Contains(t, text, "Td 7s 8h")
	assert.Contains(t, text, "65.0%")
	assert.Contains(t, text, "95% interval")
	assert.Contains(t, text, "10 trials in 1ms")
}

func TestAdvise(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Trials = 1000
	cfg.Simulation.Workers = 1
	cfg.Simulation.Seed = 3
	cfg.Advisor.Autoplay = true

	adv, err := advisor.New(cfg, zerolog.Nop(), advisor.WithClock(quartz.NewMock(t)))
	require.NoError(t, err)
	defer adv.Close()
	v, err := observation.NewValidator()
	require.NoError(t, err)

	input := strings.Join([]string{
		`{"holeCards":["As","Ad"],"boardCards":["Ac","Ah","7d","2c","9s"],"potSize":100,"myTurn":true,"availableActions":[{"kind":"check"},{"kind":"bet","amount":10}]}`,
		`not json`,
		``,
		`{"holeCards":[],"boardCards":[],"myTurn":true,"availableActions":[{"kind":"fold"}]}`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, advise(t.Context(), strings.NewReader(input), &out, adv, v, zerolog.Nop()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first, second adviceLine
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.True(t, first.Committed)
	assert.Equal(t, "bet", first.Decision.Kind)
	require.NotNil(t, first.Report.Equity)
	assert.InDelta(t, 1.0, *first.Report.Equity, 1e-9)

	assert.False(t, second.Committed, "second decision falls inside the cooldown")
	assert.Equal(t, "wait", second.Decision.Kind)
	assert.Nil(t, second.Report.Equity)
}
