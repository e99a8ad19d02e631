package main

import (
	"fmt"
	"io"
	rand "math/rand/v2"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/pokerequity/analysis"
	"github.com/lox/pokerequity/cmd/poker-equity/shared"
	"github.com/lox/pokerequity/internal/config"
	"github.com/lox/pokerequity/internal/randutil"
	"github.com/lox/pokerequity/internal/refeval"
	"github.com/lox/pokerequity/observation"
	"github.com/lox/pokerequity/poker"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

var bandStyles = map[observation.Band]lipgloss.Style{
	observation.BandHigh:   winStyle,
	observation.BandMedium: tieStyle,
	observation.BandLow:    lossStyle,
	observation.BandNone:   mutedStyle,
}

type OddsCmd struct {
	Hero        string `arg:"" help:"Hero hole cards, e.g. 'AsKd'"`
	Board       string `short:"b" help:"Known board cards, e.g. 'Td7s8h'"`
	Villain     string `help:"Opponent hole cards when known, e.g. 'QhQd'" xor:"opponent"`
	Range       string `short:"r" help:"Opponent range, e.g. 'TT+,AKs,AQo:0.5'" xor:"opponent"`
	Opponents   int    `short:"n" help:"Number of random opponents (0 uses the configured count)" xor:"opponent"`
	Trials      int    `short:"t" help:"Trial budget (0 uses the configured budget)"`
	Seed        *int64 `help:"Random seed for reproducible results"`
	RandomBoard bool   `help:"Deal the unknown board cards at random before estimating"`
	Evaluator   string `help:"Showdown evaluator (native or reference)"`
}

func (c *OddsCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	if c.Evaluator != "" {
		cfg.Simulation.Evaluator = c.Evaluator
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	hero, err := parseHole(c.Hero)
	if err != nil {
		return fmt.Errorf("hero: %w", err)
	}
	board, err := parseBoard(c.Board)
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}
	opp, err := c.opponent(cfg)
	if err != nil {
		return err
	}

	seed := cfg.Simulation.Seed
	if c.Seed != nil {
		seed = *c.Seed
	}
	rng := randutil.New(randutil.SeedOrNow(seed))

	if c.RandomBoard {
		if board, err = completeBoard(rng, hero, board, opp.Known()); err != nil {
			return err
		}
	}

	trials := c.Trials
	if trials <= 0 {
		trials = cfg.Simulation.Trials
		if len(opp.Known()) > 0 {
			trials = cfg.Simulation.SpecificTrials
		}
	}

	ctx, stop := shared.SetupSignalHandler(logger)
	defer stop()

	start := time.Now()
	res, err := analysis.EstimateEquity(ctx, hero, board, opp,
		analysis.WithTrials(trials),
		analysis.WithWorkers(cfg.Simulation.Workers),
		analysis.WithExhaustive(cfg.Simulation.Exhaustive),
		analysis.WithShowdown(showdownFor(cfg.Simulation.Evaluator)),
		analysis.WithRand(rng),
	)
	if err != nil {
		return err
	}
	logger.Debug().Int("trials", res.Trials).Bool("exhaustive", res.Exhaustive).Msg("estimate complete")

	displayOdds(os.Stdout, oddsView{
		hero:        hero,
		board:       board,
		opponent:    opp,
		result:      res,
		description: describe(cfg.Simulation.Evaluator, hero, board),
		elapsed:     time.Since(start),
	})
	return nil
}

func (c *OddsCmd) opponent(cfg *config.Config) (analysis.Opponent, error) {
	switch {
	case c.Villain != "":
		cards, err := parseHole(c.Villain)
		if err != nil {
			return analysis.Opponent{}, fmt.Errorf("villain: %w", err)
		}
		return analysis.SpecificOpponent(cards[0], cards[1]), nil
	case c.Range != "":
		r, err := analysis.ParseRange(c.Range)
		if err != nil {
			return analysis.Opponent{}, err
		}
		return analysis.RangeOpponent(r), nil
	case c.Opponents > 0:
		return analysis.RandomOpponents(c.Opponents), nil
	case cfg.Advisor.OpponentRange != "":
		r, err := analysis.ParseRange(cfg.Advisor.OpponentRange)
		if err != nil {
			return analysis.Opponent{}, err
		}
		return analysis.RangeOpponent(r), nil
	default:
		return analysis.RandomOpponents(cfg.Advisor.Opponents), nil
	}
}

func parseHole(s string) ([]poker.Card, error) {
	cards, err := poker.ParseCardString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(cards) != 2 {
		return nil, fmt.Errorf("must contain exactly 2 cards, got %d", len(cards))
	}
	return cards, nil
}

func parseBoard(s string) ([]poker.Card, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	cards, err := poker.ParseCardString(s)
	if err != nil {
		return nil, err
	}
	if len(cards) > 5 {
		return nil, fmt.Errorf("%w: got %d", analysis.ErrInvalidBoardLength, len(cards))
	}
	return cards, nil
}

// completeBoard deals the missing board cards from the cards nobody holds.
func completeBoard(rng *rand.Rand, hero, board, dead []poker.Card) ([]poker.Card, error) {
	deck, err := poker.FullDeck().Excluding(slices.Concat(hero, board, dead)...)
	if err != nil {
		return nil, err
	}
	missing := 5 - len(board)
	if missing <= 0 {
		return board, nil
	}
	if deck.Len() < missing {
		return nil, analysis.ErrDeckExhausted
	}
	return slices.Concat(board, deck.Shuffle(rng)[:missing]), nil
}

func describe(evaluator string, hero, board []poker.Card) string {
	if evaluator == config.EvaluatorReference && len(hero)+len(board) >= 5 {
		if desc, err := refeval.Describe(slices.Concat(hero, board)); err == nil {
			return desc
		}
	}
	return observation.Describe(hero, board)
}

type oddsView struct {
	hero        []poker.Card
	board       []poker.Card
	opponent    analysis.Opponent
	result      analysis.EquityResult
	description string
	elapsed     time.Duration
}

func formatCards(cards []poker.Card) string {
	return strings.Join(poker.Codes(cards), " ")
}

func pct(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

func displayOdds(out io.Writer, v oddsView) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if len(v.board) > 0 {
		fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("board"), formatCards(v.board))
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", headerStyle.Render("hero"), handStyle.Render(formatCards(v.hero)), mutedStyle.Render(v.description))
	fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("versus"), v.opponent)
	w.Flush()
	fmt.Fprintln(out)

	res := v.result
	equity := res.Equity()
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("win"),
		headerStyle.Render("tie"),
		headerStyle.Render("loss"),
		headerStyle.Render("equity"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		winStyle.Render(pct(res.WinRate())),
		tieStyle.Render(pct(res.TieRate())),
		lossStyle.Render(pct(res.LossRate())),
		bandStyles[observation.BandFor(equity)].Render(pct(equity)))
	w.Flush()

	fmt.Fprintln(out)
	if res.Exhaustive {
		fmt.Fprintf(out, "%d run-outs enumerated in %v\n", res.Trials, v.elapsed.Truncate(time.Millisecond))
		return
	}
	lower, upper := res.ConfidenceInterval()
	fmt.Fprintf(out, "95%% interval %s to %s\n", pct(lower), pct(upper))
	fmt.Fprintf(out, "%d trials in %v\n", res.Trials, v.elapsed.Truncate(time.Millisecond))
}
