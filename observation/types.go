// Package observation defines the JSON documents exchanged with the table
// integration: the game observation it scrapes, and the decision and equity
// report it displays or executes.
package observation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lox/pokerequity/analysis"
	"github.com/lox/pokerequity/poker"
	"github.com/lox/pokerequity/strategy"
)

// ErrInvalidObservation wraps schema and card errors in an observation.
var ErrInvalidObservation = errors.New("invalid observation")

// Action is one legal action offered by the table.
type Action struct {
	Kind   string `json:"kind"`
	Amount int    `json:"amount,omitempty"`
}

// GameObservation is a snapshot of the table from the player's seat.
type GameObservation struct {
	HoleCards        []string `json:"holeCards"`
	BoardCards       []string `json:"boardCards"`
	PotSize          int      `json:"potSize,omitempty"`
	TotalPot         int      `json:"totalPot,omitempty"`
	MyTurn           bool     `json:"myTurn,omitempty"`
	AvailableActions []Action `json:"availableActions,omitempty"`
}

// Normalize rewrites numeric rank codes ("10h", "14s") to canonical codes
// and rejects duplicate cards.
func (o GameObservation) Normalize() (GameObservation, error) {
	out := o
	var err error
	if out.HoleCards, err = normalizeCodes(o.HoleCards); err != nil {
		return GameObservation{}, fmt.Errorf("%w: hole cards: %w", ErrInvalidObservation, err)
	}
	if out.BoardCards, err = normalizeCodes(o.BoardCards); err != nil {
		return GameObservation{}, fmt.Errorf("%w: board cards: %w", ErrInvalidObservation, err)
	}
	if _, err := poker.ParseCards(slices.Concat(out.HoleCards, out.BoardCards)...); err != nil {
		return GameObservation{}, fmt.Errorf("%w: %w", ErrInvalidObservation, err)
	}
	return out, nil
}

func normalizeCodes(codes []string) ([]string, error) {
	out := make([]string, len(codes))
	for i, code := range codes {
		norm, err := poker.NormalizeCode(code)
		if err != nil {
			return nil, err
		}
		out[i] = norm
	}
	return out, nil
}

// Cards parses hole and board codes. The observation must be normalized.
func (o GameObservation) Cards() (hole, board []poker.Card, err error) {
	if hole, err = poker.ParseCards(o.HoleCards...); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidObservation, err)
	}
	if board, err = poker.ParseCards(o.BoardCards...); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidObservation, err)
	}
	return hole, board, nil
}

// Key identifies the cards an equity estimate depends on. Card order does
// not matter.
func (o GameObservation) Key() string {
	hole, _ := poker.ParseHand(o.HoleCards...)
	board, _ := poker.ParseHand(o.BoardCards...)
	return hole.String() + "|" + board.String()
}

// Pot returns the pot state for the decision policy.
func (o GameObservation) Pot() strategy.PotState {
	return strategy.PotState{PotSize: o.PotSize, TotalPot: o.TotalPot}
}

// Actions converts the offered actions for the decision policy.
func (o GameObservation) Actions() ([]strategy.AvailableAction, error) {
	out := make([]strategy.AvailableAction, 0, len(o.AvailableActions))
	for _, a := range o.AvailableActions {
		kind, err := strategy.ParseActionKind(a.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidObservation, err)
		}
		out = append(out, strategy.AvailableAction{Kind: kind, Amount: a.Amount})
	}
	return out, nil
}

// ActionDecision is the decision handed to the executor.
type ActionDecision struct {
	Kind        string `json:"kind"`
	BetSizeTier string `json:"betSizeTier,omitempty"`
	BetAmount   int    `json:"betAmount,omitempty"`
	Rationale   string `json:"rationale"`
}

// NewActionDecision converts a policy decision.
func NewActionDecision(d strategy.Decision) ActionDecision {
	out := ActionDecision{Kind: string(d.Kind), Rationale: d.Rationale}
	if d.Kind == strategy.Bet {
		out.BetSizeTier = string(d.BetSize)
		out.BetAmount = d.Amount
	}
	return out
}

// Band is a display bucket for equity.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
	BandNone   Band = "none"
)

// BandFor buckets equity: high from 0.70, medium from 0.50, low below.
func BandFor(equity float64) Band {
	switch {
	case equity >= 0.70:
		return BandHigh
	case equity >= 0.50:
		return BandMedium
	default:
		return BandLow
	}
}

// EquityReport is what the overlay shows. Equity is nil when no estimate
// is available.
type EquityReport struct {
	Equity          *float64 `json:"equity,omitempty"`
	HandDescription string   `json:"handDescription"`
	TrialsRun       int      `json:"trialsRun"`
	Exhaustive      bool     `json:"exhaustive,omitempty"`
	Band            Band     `json:"band,omitempty"`
}

// NewEquityReport builds a report from a finished estimate.
func NewEquityReport(res analysis.EquityResult, description string) EquityReport {
	eq := res.Equity()
	return EquityReport{
		Equity:          &eq,
		HandDescription: description,
		TrialsRun:       res.Trials,
		Exhaustive:      res.Exhaustive,
		Band:            BandFor(eq),
	}
}

// NoEstimate is the placeholder report shown while cards are missing.
func NoEstimate(description string) EquityReport {
	return EquityReport{HandDescription: description, Band: BandNone}
}

// Describe names the hero's current holding: the made hand once five or
// more cards are known, the preflop category with only hole cards.
func Describe(hole, board []poker.Card) string {
	switch {
	case len(hole) < 2:
		return "Waiting for cards"
	case len(hole)+len(board) >= 5:
		hr, best, err := poker.Best(slices.Concat(hole, board)...)
		if err != nil {
			return "Unknown"
		}
		return fmt.Sprintf("%s (%s)", hr, strings.Join(poker.Codes(best[:]), " "))
	default:
		return poker.DescribeHoleCards(hole[0], hole[1])
	}
}
