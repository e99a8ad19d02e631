// Package config loads advisor settings from an HCL file, then applies
// overrides from the environment (optionally seeded from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/lox/pokerequity/analysis"
	"github.com/lox/pokerequity/strategy"
)

// Environment variables that override file settings.
const (
	EnvLogLevel  = "POKER_EQUITY_LOG_LEVEL"
	EnvTrials    = "POKER_EQUITY_TRIALS"
	EnvWorkers   = "POKER_EQUITY_WORKERS"
	EnvSeed      = "POKER_EQUITY_SEED"
	EnvEvaluator = "POKER_EQUITY_EVALUATOR"
	EnvEnabled   = "POKER_EQUITY_ENABLED"
	EnvAutoplay  = "POKER_EQUITY_AUTOPLAY"
	EnvCooldown  = "POKER_EQUITY_COOLDOWN"
	EnvOpponents = "POKER_EQUITY_OPPONENTS"
	EnvRange     = "POKER_EQUITY_RANGE"
)

// Evaluator backends.
const (
	EvaluatorNative    = "native"
	EvaluatorReference = "reference"
)

// Config is the resolved configuration.
type Config struct {
	LogLevel   string
	Simulation Simulation
	Policy     strategy.Thresholds
	Advisor    Advisor
}

// Simulation controls the equity estimator.
type Simulation struct {
	Trials         int
	SpecificTrials int
	// Workers is the number of goroutines; 0 picks one per CPU.
	Workers int
	// Seed makes estimates reproducible; 0 seeds from the clock.
	Seed       int64
	Exhaustive bool
	Evaluator  string
}

// Advisor controls when decisions are committed.
type Advisor struct {
	Enabled  bool
	Autoplay bool
	Cooldown time.Duration
	// Opponents is the number of random opponents; ignored when
	// OpponentRange is set.
	Opponents     int
	OpponentRange string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Simulation: Simulation{
			Trials:         analysis.DefaultTrials,
			SpecificTrials: analysis.DefaultSpecificTrials,
			Exhaustive:     true,
			Evaluator:      EvaluatorNative,
		},
		Policy: strategy.DefaultThresholds(),
		Advisor: Advisor{
			Enabled:   true,
			Autoplay:  false,
			Cooldown:  2 * time.Second,
			Opponents: 1,
		},
	}
}

type fileConfig struct {
	LogLevel   *string         `hcl:"log_level,optional"`
	Simulation *fileSimulation `hcl:"simulation,block"`
	Policy     *filePolicy     `hcl:"policy,block"`
	Advisor    *fileAdvisor    `hcl:"advisor,block"`
}

type fileSimulation struct {
	Trials         *int    `hcl:"trials,optional"`
	SpecificTrials *int    `hcl:"specific_trials,optional"`
	Workers        *int    `hcl:"workers,optional"`
	Seed           *int64  `hcl:"seed,optional"`
	Exhaustive     *bool   `hcl:"exhaustive,optional"`
	Evaluator      *string `hcl:"evaluator,optional"`
}

type filePolicy struct {
	Value    *float64 `hcl:"value,optional"`
	Good     *float64 `hcl:"good,optional"`
	Marginal *float64 `hcl:"marginal,optional"`
	Weak     *float64 `hcl:"weak,optional"`
}

type fileAdvisor struct {
	Enabled       *bool   `hcl:"enabled,optional"`
	Autoplay      *bool   `hcl:"autoplay,optional"`
	Cooldown      *string `hcl:"cooldown,optional"`
	Opponents     *int    `hcl:"opponents,optional"`
	OpponentRange *string `hcl:"opponent_range,optional"`
}

// Load reads an HCL file over the defaults. A missing file or empty path
// yields the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	if err := cfg.merge(fc); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(fc fileConfig) error {
	set(&c.LogLevel, fc.LogLevel)
	if s := fc.Simulation; s != nil {
		set(&c.Simulation.Trials, s.Trials)
		set(&c.Simulation.SpecificTrials, s.SpecificTrials)
		set(&c.Simulation.Workers, s.Workers)
		set(&c.Simulation.Seed, s.Seed)
		set(&c.Simulation.Exhaustive, s.Exhaustive)
		set(&c.Simulation.Evaluator, s.Evaluator)
	}
	if p := fc.Policy; p != nil {
		set(&c.Policy.Value, p.Value)
		set(&c.Policy.Good, p.Good)
		set(&c.Policy.Marginal, p.Marginal)
		set(&c.Policy.Weak, p.Weak)
	}
	if a := fc.Advisor; a != nil {
		set(&c.Advisor.Enabled, a.Enabled)
		set(&c.Advisor.Autoplay, a.Autoplay)
		set(&c.Advisor.Opponents, a.Opponents)
		set(&c.Advisor.OpponentRange, a.OpponentRange)
		if a.Cooldown != nil {
			d, err := time.ParseDuration(*a.Cooldown)
			if err != nil {
				return fmt.Errorf("invalid advisor cooldown %q: %w", *a.Cooldown, err)
			}
			c.Advisor.Cooldown = d
		}
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(filenames ...string) error {
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from the process environment.
func (c *Config) ApplyEnv() error {
	return c.ApplyLookup(os.LookupEnv)
}

// ApplyLookup overrides settings from lookup, which has the signature of
// os.LookupEnv.
func (c *Config) ApplyLookup(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvEvaluator); ok {
		c.Simulation.Evaluator = v
	}
	if v, ok := lookup(EnvRange); ok {
		c.Advisor.OpponentRange = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvTrials, &c.Simulation.Trials},
		{EnvWorkers, &c.Simulation.Workers},
		{EnvOpponents, &c.Advisor.Opponents},
	}
	for _, e := range ints {
		if v, ok := lookup(e.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	if v, ok := lookup(EnvSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvSeed, err)
		}
		c.Simulation.Seed = seed
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{EnvEnabled, &c.Advisor.Enabled},
		{EnvAutoplay, &c.Advisor.Autoplay},
	}
	for _, e := range bools {
		if v, ok := lookup(e.key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", e.key, err)
			}
			*e.dst = b
		}
	}

	if v, ok := lookup(EnvCooldown); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvCooldown, err)
		}
		c.Advisor.Cooldown = d
	}
	return nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.Simulation.Trials < 1 || c.Simulation.SpecificTrials < 1 {
		return fmt.Errorf("trials must be positive: %d/%d", c.Simulation.Trials, c.Simulation.SpecificTrials)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Simulation.Workers)
	}
	switch c.Simulation.Evaluator {
	case EvaluatorNative, EvaluatorReference:
	default:
		return fmt.Errorf("unknown evaluator %q", c.Simulation.Evaluator)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	if c.Advisor.Opponents < 1 || c.Advisor.Opponents > 9 {
		return fmt.Errorf("opponents must be between 1 and 9: %d", c.Advisor.Opponents)
	}
	if c.Advisor.Cooldown < 0 {
		return fmt.Errorf("cooldown cannot be negative: %s", c.Advisor.Cooldown)
	}
	if c.Advisor.OpponentRange != "" {
		if _, err := analysis.ParseRange(c.Advisor.OpponentRange); err != nil {
			return fmt.Errorf("invalid opponent range: %w", err)
		}
	}
	return nil
}
