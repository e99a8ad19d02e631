// Package strategy maps an equity estimate and the legal actions to a single
// betting decision using fixed equity thresholds and pot odds.
package strategy

import (
	"errors"
	"fmt"
	"slices"
)

// ActionKind is a betting action.
type ActionKind string

const (
	Fold  ActionKind = "fold"
	Check ActionKind = "check"
	Call  ActionKind = "call"
	Bet   ActionKind = "bet"
	// Wait means no action should be taken now.
	Wait ActionKind = "wait"
)

// ErrUnknownAction is returned when parsing an unrecognised action name.
var ErrUnknownAction = errors.New("unknown action")

// ParseActionKind converts an action name. "raise" is accepted as bet.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "bet", "raise":
		return Bet, nil
	case "wait":
		return Wait, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// BetSize is a bet sizing tier relative to the pot.
type BetSize string

const (
	HalfPot         BetSize = "1/2 pot"
	ThreeQuarterPot BetSize = "3/4 pot"
	FullPot         BetSize = "pot"
	AllIn           BetSize = "all-in"
)

// Amount converts the tier to chips for the given pot. All-in has no
// pot-relative size and returns 0; the caller bets its whole stack.
func (b BetSize) Amount(pot int) int {
	switch b {
	case HalfPot:
		return pot / 2
	case ThreeQuarterPot:
		return pot * 3 / 4
	case FullPot:
		return pot
	default:
		return 0
	}
}

// AvailableAction is one legal action. Amount is the chips the action
// costs (call) or the minimum size offered (bet).
type AvailableAction struct {
	Kind   ActionKind
	Amount int
}

// PotState holds the pot as reported by the table.
type PotState struct {
	PotSize  int
	TotalPot int
}

// Pot returns the total pot when reported, otherwise the pot size.
func (p PotState) Pot() int {
	if p.TotalPot > 0 {
		return p.TotalPot
	}
	return p.PotSize
}

// PotOdds returns the break-even equity for a call: call / (pot + call).
// A free call returns 0.
func PotOdds(call, pot int) float64 {
	if call <= 0 {
		return 0
	}
	return float64(call) / float64(pot+call)
}

// Input is everything the policy looks at.
type Input struct {
	Equity    float64
	HasEquity bool
	Actions   []AvailableAction
	Pot       PotState
}

func (in Input) action(kind ActionKind) (AvailableAction, bool) {
	i := slices.IndexFunc(in.Actions, func(a AvailableAction) bool { return a.Kind == kind })
	if i < 0 {
		return AvailableAction{}, false
	}
	return in.Actions[i], true
}

func (in Input) has(kind ActionKind) bool {
	_, ok := in.action(kind)
	return ok
}

func (in Input) callAmount() int {
	a, _ := in.action(Call)
	return a.Amount
}

// Decision is the policy output.
type Decision struct {
	Kind ActionKind
	// BetSize and Amount are set for bets; Amount is also set for calls.
	BetSize   BetSize
	Amount    int
	PotOdds   float64
	Rationale string
}

// Thresholds are equity fractions; each boundary belongs to the higher tier.
type Thresholds struct {
	Value    float64
	Good     float64
	Marginal float64
	Weak     float64
}

// DefaultThresholds returns 0.70 / 0.60 / 0.50 / 0.40.
func DefaultThresholds() Thresholds {
	return Thresholds{Value: 0.70, Good: 0.60, Marginal: 0.50, Weak: 0.40}
}

// Validate checks that thresholds lie in [0, 1] and descend.
func (t Thresholds) Validate() error {
	order := []float64{t.Value, t.Good, t.Marginal, t.Weak}
	for i, v := range order {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %v outside [0, 1]", v)
		}
		if i > 0 && v > order[i-1] {
			return fmt.Errorf("thresholds must descend: %v > %v", v, order[i-1])
		}
	}
	return nil
}

// Policy is a stateless decision table.
type Policy struct {
	Thresholds Thresholds
}

// DefaultPolicy returns a policy with DefaultThresholds.
func DefaultPolicy() Policy {
	return Policy{Thresholds: DefaultThresholds()}
}

// Decide picks one of in.Actions:
//
//	equity >= Value     bet pot
//	equity >= Good      bet 3/4 pot when checking is possible, otherwise call
//	equity >= Marginal  check, otherwise call if equity beats pot odds, otherwise fold
//	equity >= Weak      check, otherwise fold
//	below Weak          fold
//	unknown equity      check, otherwise fold
//
// An unavailable bet or call falls back to call, then check, then fold.
// With no actions at all the decision is Wait.
func (p Policy) Decide(in Input) Decision {
	if len(in.Actions) == 0 {
		return Decision{Kind: Wait, Rationale: "no actions available"}
	}

	pot := in.Pot.Pot()
	odds := PotOdds(in.callAmount(), pot)
	t := p.Thresholds
	eq := in.Equity
	pct := eq * 100

	var d Decision
	switch {
	case !in.HasEquity:
		d = resolve(in, "no equity estimate, play safe", Check, Fold)
	case eq >= t.Value:
		d = resolveBet(in, pot, FullPot, fmt.Sprintf("strong hand (%.1f%% equity), value bet", pct))
	case eq >= t.Good && in.has(Check):
		d = resolveBet(in, pot, ThreeQuarterPot, fmt.Sprintf("good equity (%.1f%%), bet for value", pct))
	case eq >= t.Good:
		d = resolve(in, fmt.Sprintf("good equity (%.1f%%) facing a bet, call", pct), Call, Check, Fold)
	case eq >= t.Marginal && in.has(Check):
		d = resolve(in, fmt.Sprintf("marginal hand (%.1f%%), check", pct), Check, Fold)
	case eq >= t.Marginal && eq > odds:
		d = resolve(in, fmt.Sprintf("pot odds favourable (%.1f%% > %.1f%%), call", pct, odds*100), Call, Check, Fold)
	case eq >= t.Marginal:
		d = resolve(in, fmt.Sprintf("pot odds unfavourable (%.1f%% <= %.1f%%), fold", pct, odds*100), Fold, Check)
	case eq >= t.Weak:
		d = resolve(in, fmt.Sprintf("weak hand (%.1f%%), check or fold", pct), Check, Fold)
	default:
		d = resolve(in, fmt.Sprintf("weak hand (%.1f%%), fold", pct), Fold, Check)
	}
	d.PotOdds = odds
	return d
}

// resolveBet bets size when betting is legal and otherwise falls back to
// call, check and fold.
func resolveBet(in Input, pot int, size BetSize, rationale string) Decision {
	if a, ok := in.action(Bet); ok {
		return Decision{
			Kind:      Bet,
			BetSize:   size,
			Amount:    max(size.Amount(pot), a.Amount),
			Rationale: fmt.Sprintf("%s %s", rationale, size),
		}
	}
	return resolve(in, rationale+", bet unavailable", Call, Check, Fold)
}

// resolve returns the first legal action in order.
func resolve(in Input, rationale string, order ...ActionKind) Decision {
	for _, kind := range order {
		a, ok := in.action(kind)
		if !ok {
			continue
		}
		d := Decision{Kind: kind, Rationale: rationale}
		if kind == Call {
			d.Amount = a.Amount
		}
		if kind != order[0] {
			d.Rationale = fmt.Sprintf("%s (%s unavailable, %s)", rationale, order[0], kind)
		}
		return d
	}
	return Decision{Kind: Wait, Rationale: rationale + " (no matching action)"}
}
