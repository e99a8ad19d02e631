package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/lox/pokerequity/observation"
	"github.com/lox/pokerequity/strategy"
)

type DecideCmd struct {
	Equity   float64 `arg:"" help:"Equity estimate between 0 and 1"`
	Actions  string  `short:"a" help:"Legal actions with optional amounts, e.g. 'fold,call:20,bet:40'" default:"fold,check,bet"`
	Pot      int     `short:"p" help:"Pot size"`
	TotalPot int     `help:"Total pot including bets on this street; preferred over --pot when set"`
	JSON     bool    `help:"Print the decision as JSON"`
}

func (c *DecideCmd) Run(g *Globals) error {
	cfg, _, err := g.load()
	if err != nil {
		return err
	}
	return c.decide(os.Stdout, strategy.Policy{Thresholds: cfg.Policy})
}

func (c *DecideCmd) decide(out io.Writer, policy strategy.Policy) error {
	if c.Equity < 0 || c.Equity > 1 {
		return fmt.Errorf("equity must be between 0 and 1, got %v", c.Equity)
	}
	actions, err := parseActions(c.Actions)
	if err != nil {
		return err
	}

	d := policy.Decide(strategy.Input{
		Equity:    c.Equity,
		HasEquity: true,
		Actions:   actions,
		Pot:       strategy.PotState{PotSize: c.Pot, TotalPot: c.TotalPot},
	})

	decision := observation.NewActionDecision(d)
	if c.JSON {
		v, err := observation.NewValidator()
		if err != nil {
			return err
		}
		if err := v.ValidateValue(observation.SchemaDecision, decision); err != nil {
			return err
		}
		return json.NewEncoder(out).Encode(decision)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	action := string(d.Kind)
	switch d.Kind {
	case strategy.Bet:
		action = fmt.Sprintf("%s %d (%s)", d.Kind, d.Amount, d.BetSize)
	case strategy.Call:
		action = fmt.Sprintf("%s %d", d.Kind, d.Amount)
	}
	fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("action"), handStyle.Render(action))
	fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("equity"), bandStyles[observation.BandFor(c.Equity)].Render(pct(c.Equity)))
	fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("pot odds"), pct(d.PotOdds))
	fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("reason"), mutedStyle.Render(d.Rationale))
	return w.Flush()
}

// parseActions reads "kind[:amount]" entries separated by commas.
func parseActions(s string) ([]strategy.AvailableAction, error) {
	var out []strategy.AvailableAction
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, amountStr, hasAmount := strings.Cut(part, ":")
		kind, err := strategy.ParseActionKind(name)
		if err != nil {
			return nil, err
		}
		a := strategy.AvailableAction{Kind: kind}
		if hasAmount {
			amount, err := strconv.Atoi(amountStr)
			if err != nil || amount < 0 {
				return nil, fmt.Errorf("invalid amount in %q", part)
			}
			a.Amount = amount
		}
		out = append(out, a)
	}
	return out, nil
}
