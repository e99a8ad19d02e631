package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/lox/pokerequity/cmd/poker-equity/shared"
	"github.com/lox/pokerequity/internal/advisor"
	"github.com/lox/pokerequity/observation"
)

const maxObservationSize = 1 << 20

type AdviseCmd struct {
	Input    string `short:"i" help:"Read observations from a file instead of stdin" type:"existingfile"`
	Autoplay *bool  `help:"Commit decisions on our turn (overrides configuration)"`
}

// adviceLine is one line of advise output.
type adviceLine struct {
	Key       string                     `json:"key"`
	Report    observation.EquityReport   `json:"report"`
	Decision  observation.ActionDecision `json:"decision"`
	Committed bool                       `json:"committed"`
}

func (c *AdviseCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	if c.Autoplay != nil {
		cfg.Advisor.Autoplay = *c.Autoplay
	}

	adv, err := advisor.New(cfg, logger)
	if err != nil {
		return err
	}
	defer adv.Close()

	validator, err := observation.NewValidator()
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if c.Input != "" {
		f, err := os.Open(c.Input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := shared.SetupSignalHandler(logger)
	defer stop()

	return advise(ctx, in, os.Stdout, adv, validator, logger)
}

// advise answers each observation line with one adviceLine. Bad lines are
// logged and skipped.
func advise(ctx context.Context, in io.Reader, out io.Writer, adv *advisor.Advisor, v *observation.Validator, logger zerolog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxObservationSize)
	enc := json.NewEncoder(out)

	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		obs, err := v.DecodeObservation(data)
		if err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("skipping observation")
			continue
		}

		advice, err := adv.Observe(ctx, obs)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, advisor.ErrSuperseded) {
				logger.Warn().Err(err).Int("line", line).Msg("no advice for observation")
			}
			continue
		}

		if err := v.ValidateValue(observation.SchemaReport, advice.Report); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := v.ValidateValue(observation.SchemaDecision, advice.Decision); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := enc.Encode(adviceLine{
			Key:       advice.Key,
			Report:    advice.Report,
			Decision:  advice.Decision,
			Committed: advice.Committed,
		}); err != nil {
			return err
		}
	}
	return scanner.Err()
}
