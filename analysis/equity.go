// Package analysis estimates hand equity by Monte Carlo simulation, or by
// exact enumeration when the number of possible run-outs is small.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	rand "math/rand/v2"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerequity/internal/randutil"
	"github.com/lox/pokerequity/poker"
)

var (
	// ErrInsufficientHoleCards means fewer than two hero cards are known.
	// Callers should treat it as "no estimate yet" rather than a failure.
	ErrInsufficientHoleCards = errors.New("need two hole cards")
	// ErrTooManyHoleCards means more than two hero cards were supplied.
	ErrTooManyHoleCards = errors.New("more than two hole cards")
	// ErrInvalidBoardLength means more than five board cards were supplied.
	ErrInvalidBoardLength = errors.New("board has more than five cards")

	// ErrDeckExhausted and ErrUnknownCardRemoval are the deck errors
	// surfaced by the simulator.
	ErrDeckExhausted      = poker.ErrDeckExhausted
	ErrUnknownCardRemoval = poker.ErrUnknownCardRemoval
)

// EquityResult aggregates simulation outcomes for the hero.
type EquityResult struct {
	Wins   int
	Ties   int
	Losses int
	// Share is the summed pot share: 1 per win, 1/n per n-way split.
	Share  float64
	Trials int
	// Exhaustive is set when every run-out was enumerated exactly.
	Exhaustive bool
}

// Equity returns the expected pot share in [0, 1].
func (e EquityResult) Equity() float64 {
	if e.Trials == 0 {
		return 0
	}
	return e.Share / float64(e.Trials)
}

// WinRate returns the fraction of outright wins.
func (e EquityResult) WinRate() float64 {
	return e.rate(e.Wins)
}

// TieRate returns the fraction of split pots.
func (e EquityResult) TieRate() float64 {
	return e.rate(e.Ties)
}

// LossRate returns the fraction of losses.
func (e EquityResult) LossRate() float64 {
	return e.rate(e.Losses)
}

func (e EquityResult) rate(n int) float64 {
	if e.Trials == 0 {
		return 0
	}
	return float64(n) / float64(e.Trials)
}

// ConfidenceInterval returns the 95% confidence interval for equity. Exact
// results have zero width.
func (e EquityResult) ConfidenceInterval() (lower, upper float64) {
	equity := e.Equity()
	if e.Trials == 0 {
		return 0, 0
	}
	if e.Exhaustive {
		return equity, equity
	}

	// Standard error for binomial proportion
	se := math.Sqrt(equity * (1 - equity) / float64(e.Trials))
	margin := 1.96 * se

	return math.Max(0, equity-margin), math.Min(1, equity+margin)
}

func (e *EquityResult) record(share float64) {
	switch share {
	case 1:
		e.Wins++
	case 0:
		e.Losses++
	default:
		e.Ties++
	}
	e.Share += share
	e.Trials++
}

func (e *EquityResult) add(other EquityResult) {
	e.Wins += other.Wins
	e.Ties += other.Ties
	e.Losses += other.Losses
	e.Share += other.Share
	e.Trials += other.Trials
}

// EstimateEquity returns the hero's expected share of the pot given two hole
// cards, 0 to 5 board cards and an opponent model.
//
// Each trial removes every known card from a fresh deck, deals the unknown
// opponent cards, completes the board to five cards and compares the best
// hands. When exhaustive enumeration is enabled and the number of distinct
// run-outs fits in the trial budget, every run-out is scored exactly once.
// Sampling is split across workers with independent random streams; the
// context is checked between trials.
func EstimateEquity(ctx context.Context, hero, board []poker.Card, opp Opponent, opts ...Option) (EquityResult, error) {
	switch {
	case len(hero) < 2:
		return EquityResult{}, fmt.Errorf("%w: got %d", ErrInsufficientHoleCards, len(hero))
	case len(hero) > 2:
		return EquityResult{}, fmt.Errorf("%w: got %d", ErrTooManyHoleCards, len(hero))
	case len(board) > 5:
		return EquityResult{}, fmt.Errorf("%w: got %d", ErrInvalidBoardLength, len(board))
	}

	o := buildOptions(opp, opts)
	sim, err := newSimulation(hero, board, opp, o.showdown)
	if err != nil {
		return EquityResult{}, err
	}

	if o.exhaustive {
		if n, ok := sim.runouts(); ok && n <= o.trials {
			return sim.enumerate(ctx)
		}
	}
	return sim.sample(ctx, o)
}

// QuickEquity estimates equity against random opponents with a fixed seed
// and the default trial budget.
func QuickEquity(hero, board []string, opponents int) (float64, error) {
	heroCards, err := poker.ParseCards(hero...)
	if err != nil {
		return 0, err
	}
	boardCards, err := poker.ParseCards(board...)
	if err != nil {
		return 0, err
	}
	res, err := EstimateEquity(context.Background(), heroCards, boardCards,
		RandomOpponents(opponents), WithSeed(42))
	if err != nil {
		return 0, err
	}
	return res.Equity(), nil
}

type simulation struct {
	hero     poker.Hand
	board    poker.Hand
	needed   int
	deck     poker.Deck
	opp      Opponent
	oppHole  poker.Hand
	showdown Showdown

	combos     []poker.Hand
	cumulative []float64
}

func newSimulation(hero, board []poker.Card, opp Opponent, showdown Showdown) (*simulation, error) {
	known := slices.Concat(hero, board, opp.Known())
	deck, err := poker.FullDeck().Excluding(known...)
	if err != nil {
		return nil, fmt.Errorf("known cards %v: %w", poker.Codes(known), err)
	}

	s := &simulation{
		hero:     poker.NewHand(hero...),
		board:    poker.NewHand(board...),
		needed:   5 - len(board),
		deck:     deck,
		opp:      opp,
		oppHole:  poker.NewHand(opp.Known()...),
		showdown: showdown,
	}

	dealt := s.needed
	switch opp.kind {
	case rangeKind:
		if opp.rng == nil {
			return nil, ErrEmptyRange
		}
		s.combos, s.cumulative = opp.rng.liveCombos(s.hero | s.board)
		if len(s.combos) == 0 {
			return nil, fmt.Errorf("%w: every combination is blocked by %v", ErrEmptyRange, poker.Codes(known))
		}
		dealt += 2
	case randomKind:
		dealt += 2 * opp.Count()
	}
	if dealt > deck.Len() {
		return nil, fmt.Errorf("%w: need %d unseen cards, %d left", ErrDeckExhausted, dealt, deck.Len())
	}
	return s, nil
}

// runouts returns the number of distinct deals when they can be enumerated.
func (s *simulation) runouts() (int, bool) {
	left := s.deck.Len()
	switch {
	case s.opp.kind == specificKind:
		return binomial(left, s.needed), true
	case s.opp.kind == randomKind && s.opp.Count() == 1:
		return binomial(left, 2) * binomial(left-2, s.needed), true
	default:
		return 0, false
	}
}

// share scores one completed board: 1 for a win, 1/n for an n-way split
// and 0 when any opponent is ahead.
func (s *simulation) share(board poker.Hand, opponents []poker.Hand) float64 {
	hero := s.showdown(s.hero | board)
	split := 1
	for _, opp := range opponents {
		v := s.showdown(opp | board)
		switch {
		case v > hero:
			return 0
		case v == hero:
			split++
		}
	}
	return 1 / float64(split)
}

func (s *simulation) trial(rng *rand.Rand, opponents []poker.Hand) (float64, error) {
	deck := s.deck
	switch s.opp.kind {
	case specificKind:
		opponents[0] = s.oppHole
	case rangeKind:
		combo := s.pickCombo(rng)
		var err error
		if deck, err = deck.Excluding(combo.Cards()...); err != nil {
			return 0, err
		}
		opponents[0] = combo
	default:
		drawn, rest, err := deck.Draw(rng, 2*len(opponents))
		if err != nil {
			return 0, err
		}
		for i := range opponents {
			opponents[i] = poker.NewHand(drawn[2*i], drawn[2*i+1])
		}
		deck = rest
	}

	extra, _, err := deck.Draw(rng, s.needed)
	if err != nil {
		return 0, err
	}
	return s.share(s.board|poker.NewHand(extra...), opponents), nil
}

// pickCombo draws a live range combination in proportion to its weight.
func (s *simulation) pickCombo(rng *rand.Rand) poker.Hand {
	total := s.cumulative[len(s.cumulative)-1]
	i := sort.SearchFloat64s(s.cumulative, rng.Float64()*total)
	if i >= len(s.combos) {
		i = len(s.combos) - 1
	}
	return s.combos[i]
}

func (s *simulation) sample(ctx context.Context, o options) (EquityResult, error) {
	parts := make([]EquityResult, o.workers)
	perWorker, remainder := o.trials/o.workers, o.trials%o.workers

	g, gctx := errgroup.WithContext(ctx)
	for w := range o.workers {
		n := perWorker
		if w < remainder {
			n++
		}
		// Streams are split before launch so the parent is never shared.
		workerRng := randutil.Split(o.rng)

		g.Go(func() error {
			res, err := s.run(gctx, workerRng, n)
			parts[w] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return EquityResult{}, err
	}

	var total EquityResult
	for _, p := range parts {
		total.add(p)
	}
	return total, nil
}

func (s *simulation) run(ctx context.Context, rng *rand.Rand, trials int) (EquityResult, error) {
	var res EquityResult
	opponents := make([]poker.Hand, s.opp.Count())
	for i := range trials {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		share, err := s.trial(rng, opponents)
		if err != nil {
			return res, err
		}
		res.record(share)
	}
	return res, nil
}

// enumerate scores every possible deal exactly once.
func (s *simulation) enumerate(ctx context.Context) (EquityResult, error) {
	res := EquityResult{Exhaustive: true}
	opponents := make([]poker.Hand, 1)
	visit := func(opp, extra poker.Hand) error {
		if res.Trials%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		opponents[0] = opp
		res.record(s.share(s.board|extra, opponents))
		return nil
	}

	cards := s.deck.Cards()
	var err error
	if s.opp.kind == specificKind {
		err = forEachCombo(cards, s.needed, func(extra poker.Hand) error {
			return visit(s.oppHole, extra)
		})
	} else {
		err = forEachCombo(cards, 2, func(opp poker.Hand) error {
			rest := slices.DeleteFunc(slices.Clone(cards), func(c poker.Card) bool { return opp.HasCard(c) })
			return forEachCombo(rest, s.needed, func(extra poker.Hand) error {
				return visit(opp, extra)
			})
		})
	}
	if err != nil {
		return EquityResult{}, err
	}
	return res, nil
}

// forEachCombo calls fn with every k-card subset of cards. k == 0 yields
// the empty set once.
func forEachCombo(cards []poker.Card, k int, fn func(poker.Hand) error) error {
	n := len(cards)
	if k > n {
		return nil
	}
	if k == 0 {
		return fn(0)
	}

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		var h poker.Hand
		for _, i := range idx {
			h.AddCard(cards[i])
		}
		if err := fn(h); err != nil {
			return err
		}

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return nil
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	k = min(k, n-k)
	result := 1
	for i := 1; i <= k; i++ {
		result = result * (n - k + i) / i
	}
	return result
}
