package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"

	"github.com/lox/pokerequity/analysis"
	"github.com/lox/pokerequity/cmd/poker-equity/shared"
	"github.com/lox/pokerequity/internal/config"
	"github.com/lox/pokerequity/internal/refeval"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config   string   `short:"c" help:"HCL configuration file" default:"poker-equity.hcl" type:"path"`
	EnvFile  []string `help:"Files of KEY=value pairs loaded before POKER_EQUITY_* overrides" default:".env"`
	LogLevel string   `help:"Log level override (debug, info, warn, error)"`
	LogJSON  bool     `help:"Write structured JSON logs"`
	NoColor  bool     `help:"Disable colored output"`
}

type CLI struct {
	Globals

	Odds    OddsCmd    `cmd:"" help:"Estimate hand equity"`
	Decide  DecideCmd  `cmd:"" help:"Apply the pot-odds policy to an equity estimate"`
	Advise  AdviseCmd  `cmd:"" help:"Read JSON observations line by line and write reports and decisions"`
	Version VersionCmd `cmd:"" help:"Show version"`
}

// load resolves configuration from file, .env files, the environment and
// flags, in that order, and builds the logger.
func (g *Globals) load() (*config.Config, zerolog.Logger, error) {
	if g.NoColor || termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	if err := config.LoadDotEnv(g.EnvFile...); err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, zerolog.Nop(), err
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}

	logger, err := shared.NewLogger(cfg.LogLevel, g.LogJSON)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger.Debug().
		Str("config", g.Config).
		Int("trials", cfg.Simulation.Trials).
		Str("evaluator", cfg.Simulation.Evaluator).
		Msg("configuration loaded")
	return cfg, logger, nil
}

func showdownFor(evaluator string) analysis.Showdown {
	if evaluator == config.EvaluatorReference {
		return refeval.Showdown
	}
	return analysis.DefaultShowdown
}

type VersionCmd struct{}

func (VersionCmd) Run() error {
	fmt.Println(version)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("poker-equity"),
		kong.Description("Monte Carlo hold'em equity and pot-odds decisions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
