package analysis

import (
	"fmt"

	"github.com/lox/pokerequity/poker"
)

type opponentKind uint8

const (
	randomKind opponentKind = iota
	specificKind
	rangeKind
)

// Opponent describes what is known about the players the hero is up against.
type Opponent struct {
	kind  opponentKind
	count int
	hole  [2]poker.Card
	rng   *Range
}

// RandomOpponent is a single opponent holding any two unseen cards.
func RandomOpponent() Opponent {
	return RandomOpponents(1)
}

// RandomOpponents is n opponents, each holding two random unseen cards.
// Values below 1 are treated as 1.
func RandomOpponents(n int) Opponent {
	return Opponent{kind: randomKind, count: max(n, 1)}
}

// SpecificOpponent is a single opponent with known hole cards.
func SpecificOpponent(c1, c2 poker.Card) Opponent {
	return Opponent{kind: specificKind, count: 1, hole: [2]poker.Card{c1, c2}}
}

// RangeOpponent is a single opponent whose holding is drawn from r in
// proportion to each combination's weight. Combinations that collide with
// known cards are skipped.
func RangeOpponent(r *Range) Opponent {
	return Opponent{kind: rangeKind, count: 1, rng: r}
}

// Count returns the number of opponents.
func (o Opponent) Count() int {
	return max(o.count, 1)
}

// Known returns opponent cards that are fixed before dealing.
func (o Opponent) Known() []poker.Card {
	if o.kind == specificKind {
		return o.hole[:]
	}
	return nil
}

func (o Opponent) String() string {
	switch o.kind {
	case specificKind:
		return fmt.Sprintf("specific %s%s", o.hole[0], o.hole[1])
	case rangeKind:
		if o.rng == nil {
			return "range (empty)"
		}
		return fmt.Sprintf("range (%d combos)", o.rng.Size())
	default:
		if o.Count() == 1 {
			return "random"
		}
		return fmt.Sprintf("random x%d", o.Count())
	}
}

// defaultTrials is the sampling budget when none is configured. Known
// opponent cards leave little variance, so fewer trials are needed.
func (o Opponent) defaultTrials() int {
	if o.kind == specificKind {
		return DefaultSpecificTrials
	}
	return DefaultTrials
}
