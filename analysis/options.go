package analysis

import (
	rand "math/rand/v2"
	"runtime"

	"github.com/lox/pokerequity/internal/randutil"
	"github.com/lox/pokerequity/poker"
)

const (
	// DefaultTrials is the trial budget for random and range opponents.
	DefaultTrials = 10000
	// DefaultSpecificTrials is the trial budget against known hole cards.
	DefaultSpecificTrials = 1000

	// parallelThreshold is the smallest budget worth splitting across workers.
	parallelThreshold = 500
	maxWorkers        = 8
	cancelCheckEvery  = 256
)

// Showdown ranks 5 to 7 cards; a higher value is a stronger hand and equal
// values split the pot.
type Showdown func(cards poker.Hand) int64

// DefaultShowdown scores hands with poker.EvaluateHand.
func DefaultShowdown(cards poker.Hand) int64 {
	return int64(poker.EvaluateHand(cards))
}

type options struct {
	trials     int
	workers    int
	rng        *rand.Rand
	exhaustive bool
	showdown   Showdown
}

// Option configures EstimateEquity.
type Option func(*options)

// WithTrials sets the trial budget. Non-positive values keep the default
// for the opponent model.
func WithTrials(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.trials = n
		}
	}
}

// WithWorkers sets how many goroutines share the trials. Results are
// reproducible for a fixed seed and worker count.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithRand sets the parent random source. Worker streams are split from it
// before any trial runs, so it is only used from the calling goroutine.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		if rng != nil {
			o.rng = rng
		}
	}
}

// WithSeed is WithRand(randutil.New(seed)).
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rng = randutil.New(seed)
	}
}

// WithExhaustive controls whether small problems are enumerated exactly
// instead of sampled. Enabled by default.
func WithExhaustive(enabled bool) Option {
	return func(o *options) {
		o.exhaustive = enabled
	}
}

// WithShowdown replaces the hand evaluator used at showdown.
func WithShowdown(fn Showdown) Option {
	return func(o *options) {
		if fn != nil {
			o.showdown = fn
		}
	}
}

func buildOptions(opp Opponent, opts []Option) options {
	o := options{exhaustive: true, showdown: DefaultShowdown}
	for _, opt := range opts {
		opt(&o)
	}
	if o.trials == 0 {
		o.trials = opp.defaultTrials()
	}
	if o.workers == 0 {
		o.workers = 1
		if o.trials >= parallelThreshold {
			o.workers = min(runtime.NumCPU(), maxWorkers)
		}
	}
	o.workers = min(o.workers, o.trials)
	if o.rng == nil {
		o.rng = randutil.New(randutil.SeedOrNow(0))
	}
	return o
}
