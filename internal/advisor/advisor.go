// Package advisor turns game observations into equity reports and betting
// decisions.
//
// Concurrent observations of the same cards share one estimate. An
// observation with different cards cancels the estimate still running for
// the previous cards, and a finished report is reused only until the cards
// change. Committed decisions are rate limited by a cooldown.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/lox/pokerequity/analysis"
	"github.com/lox/pokerequity/internal/config"
	"github.com/lox/pokerequity/internal/refeval"
	"github.com/lox/pokerequity/observation"
	"github.com/lox/pokerequity/poker"
	"github.com/lox/pokerequity/strategy"
)

// ErrSuperseded is returned when newer cards cancel an estimate.
var ErrSuperseded = errors.New("observation superseded")

// Advice is the outcome of one observation.
type Advice struct {
	Key    string
	Report observation.EquityReport
	// Suggestion is the policy's choice on our turn, whether or not it was
	// committed.
	Suggestion strategy.Decision
	// Decision is what the executor should do; Wait unless Committed.
	Decision   observation.ActionDecision
	Committed  bool
	EstimateID string
	Cached     bool
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithClock replaces the clock used for the cooldown and timings.
func WithClock(clock quartz.Clock) Option {
	return func(a *Advisor) {
		a.clock = clock
	}
}

// WithShowdown overrides the evaluator chosen by the configuration.
func WithShowdown(fn analysis.Showdown) Option {
	return func(a *Advisor) {
		if fn != nil {
			a.showdown = fn
		}
	}
}

type flight struct {
	key    string
	name   string
	id     string
	ctx    context.Context
	cancel context.CancelFunc
}

type estimate struct {
	id     string
	key    string
	result analysis.EquityResult
}

// Advisor is safe for concurrent use.
type Advisor struct {
	settings config.Advisor
	sim      config.Simulation
	policy   strategy.Policy
	opponent analysis.Opponent
	showdown analysis.Showdown
	clock    quartz.Clock
	logger   zerolog.Logger

	group singleflight.Group

	mu         sync.Mutex
	current    *flight
	generation uint64
	cached     *estimate
	lastCommit time.Time
}

// New builds an advisor from a validated configuration.
func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Advisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opponent := analysis.RandomOpponents(cfg.Advisor.Opponents)
	if cfg.Advisor.OpponentRange != "" {
		r, err := analysis.ParseRange(cfg.Advisor.OpponentRange)
		if err != nil {
			return nil, fmt.Errorf("invalid opponent range: %w", err)
		}
		opponent = analysis.RangeOpponent(r)
	}

	showdown := analysis.DefaultShowdown
	if cfg.Simulation.Evaluator == config.EvaluatorReference {
		showdown = refeval.Showdown
	}

	a := &Advisor{
		settings: cfg.Advisor,
		sim:      cfg.Simulation,
		policy:   strategy.Policy{Thresholds: cfg.Policy},
		opponent: opponent,
		showdown: showdown,
		clock:    quartz.NewReal(),
		logger:   logger.With().Str("component", "advisor").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Observe estimates equity for obs and decides what to do with it.
func (a *Advisor) Observe(ctx context.Context, raw observation.GameObservation) (Advice, error) {
	obs, err := raw.Normalize()
	if err != nil {
		a.logger.Error().Err(err).
			Strs("hole", raw.HoleCards).
			Strs("board", raw.BoardCards).
			Msg("rejected observation")
		return Advice{}, err
	}
	hole, board, err := obs.Cards()
	if err != nil {
		return Advice{}, err
	}
	actions, err := obs.Actions()
	if err != nil {
		return Advice{}, err
	}

	desc := observation.Describe(hole, board)
	advice := Advice{Key: obs.Key(), Report: observation.NoEstimate(desc)}
	if !a.settings.Enabled {
		advice.Decision = waitFor("advisor disabled")
		return advice, nil
	}

	in := strategy.Input{Actions: actions, Pot: obs.Pot()}
	if len(hole) == 2 {
		est, cached, err := a.estimate(ctx, advice.Key, hole, board)
		if err != nil {
			if !errors.Is(err, ErrSuperseded) && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).
					Strs("hole", obs.HoleCards).
					Strs("board", obs.BoardCards).
					Msg("equity estimate failed")
			}
			return Advice{}, err
		}
		advice.EstimateID = est.id
		advice.Cached = cached
		advice.Report = observation.NewEquityReport(est.result, desc)
		in.Equity, in.HasEquity = est.result.Equity(), true
	}

	a.decide(obs.MyTurn, in, &advice)
	return advice, nil
}

// Close cancels any running estimate.
func (a *Advisor) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		a.current.cancel()
		a.current = nil
	}
	a.cached = nil
}

func (a *Advisor) estimate(ctx context.Context, key string, hole, board []poker.Card) (estimate, bool, error) {
	a.mu.Lock()
	if a.cached != nil && a.cached.key == key {
		est := *a.cached
		a.mu.Unlock()
		return est, true, nil
	}
	f := a.current
	if f == nil || f.key != key {
		if f != nil {
			f.cancel()
		}
		a.cached = nil
		a.generation++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{
			key:    key,
			name:   fmt.Sprintf("%s#%d", key, a.generation),
			id:     uuid.NewString(),
			ctx:    fctx,
			cancel: cancel,
		}
		a.current = f
	}
	a.mu.Unlock()

	ch := a.group.DoChan(f.name, func() (any, error) {
		return a.run(f, hole, board)
	})
	select {
	case <-ctx.Done():
		return estimate{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return estimate{}, false, res.Err
		}
		return res.Val.(estimate), false, nil
	}
}

func (a *Advisor) run(f *flight, hole, board []poker.Card) (estimate, error) {
	logger := a.logger.With().Str("estimate_id", f.id).Str("key", f.key).Logger()
	start := a.clock.Now()

	opts := []analysis.Option{
		analysis.WithTrials(a.sim.Trials),
		analysis.WithWorkers(a.sim.Workers),
		analysis.WithExhaustive(a.sim.Exhaustive),
		analysis.WithShowdown(a.showdown),
	}
	if a.sim.Seed != 0 {
		opts = append(opts, analysis.WithSeed(a.sim.Seed))
	}

	logger.Debug().Str("opponent", a.opponent.String()).Msg("equity estimate started")
	res, err := analysis.EstimateEquity(f.ctx, hole, board, a.opponent, opts...)
	if err != nil {
		if f.ctx.Err() != nil {
			logger.Debug().Msg("equity estimate cancelled")
			return estimate{}, fmt.Errorf("%w: %w", ErrSuperseded, err)
		}
		return estimate{}, err
	}

	est := estimate{id: f.id, key: f.key, result: res}
	a.mu.Lock()
	if a.current == f {
		a.cached = &est
	}
	a.mu.Unlock()

	logger.Debug().
		Int("trials", res.Trials).
		Float64("equity", res.Equity()).
		Bool("exhaustive", res.Exhaustive).
		Dur("elapsed", a.clock.Since(start)).
		Msg("equity estimate finished")
	return est, nil
}

func (a *Advisor) decide(myTurn bool, in strategy.Input, advice *Advice) {
	if !myTurn {
		advice.Decision = waitFor("waiting for our turn")
		return
	}

	d := a.policy.Decide(in)
	advice.Suggestion = d
	if d.Kind == strategy.Wait {
		advice.Decision = observation.NewActionDecision(d)
		return
	}
	if !a.settings.Autoplay {
		advice.Decision = waitFor(fmt.Sprintf("autoplay disabled, suggest %s: %s", d.Kind, d.Rationale))
		return
	}

	a.mu.Lock()
	now := a.clock.Now()
	if !a.lastCommit.IsZero() {
		if elapsed := now.Sub(a.lastCommit); elapsed < a.settings.Cooldown {
			a.mu.Unlock()
			remaining := (a.settings.Cooldown - elapsed).Round(time.Millisecond)
			advice.Decision = waitFor(fmt.Sprintf("cooling down, %s remaining", remaining))
			return
		}
	}
	a.lastCommit = now
	a.mu.Unlock()

	advice.Committed = true
	advice.Decision = observation.NewActionDecision(d)
	a.logger.Info().
		Str("key", advice.Key).
		Str("action", string(d.Kind)).
		Int("amount", d.Amount).
		Str("rationale", d.Rationale).
		Msg("decision committed")
}

func waitFor(rationale string) observation.ActionDecision {
	return observation.NewActionDecision(strategy.Decision{Kind: strategy.Wait, Rationale: rationale})
}
