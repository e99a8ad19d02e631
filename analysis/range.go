package analysis

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lox/pokerequity/poker"
)

// ErrEmptyRange is returned when a range holds no combination that can be
// dealt around the known cards.
var ErrEmptyRange = errors.New("range has no live combinations")

// Range is a weighted set of two-card holdings. Each combination is stored
// as the bitset of its two cards.
type Range struct {
	hands map[poker.Hand]float64
}

// NewRange creates an empty range.
func NewRange() *Range {
	return &Range{hands: make(map[poker.Hand]float64)}
}

// ParseRange builds a range from standard notation, e.g.
// "AA,KK", "AKs,AKo", "TT+", "A5s-A2s", "KTs+", "22-66".
// A part may carry a weight suffix such as "AQo:0.5"; the default is 1.
func ParseRange(notation string) (*Range, error) {
	r := NewRange()
	for part := range strings.SplitSeq(notation, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := r.addPart(part); err != nil {
			return nil, fmt.Errorf("invalid range part %q: %w", part, err)
		}
	}
	if r.Size() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyRange, notation)
	}
	return r, nil
}

// MustParseRange is ParseRange for literals; it panics on error.
func MustParseRange(notation string) *Range {
	r, err := ParseRange(notation)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Range) addPart(part string) error {
	weight := 1.0
	if body, w, ok := strings.Cut(part, ":"); ok {
		parsed, err := strconv.ParseFloat(w, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			return fmt.Errorf("weight %q must be in (0, 1]", w)
		}
		part, weight = body, parsed
	}

	switch {
	case strings.HasSuffix(part, "+"):
		return r.addPlus(strings.TrimSuffix(part, "+"), weight)
	case strings.Contains(part, "-"):
		start, end, _ := strings.Cut(part, "-")
		return r.addSpan(start, end, weight)
	default:
		return r.addNotation(part, weight)
	}
}

// shape is one parsed hand class such as "AKs" or "77".
type shape struct {
	hi, lo  uint8
	suited  bool
	offsuit bool
}

func parseShape(s string) (shape, error) {
	if len(s) < 2 || len(s) > 3 {
		return shape{}, fmt.Errorf("invalid notation length: %s", s)
	}
	hi, ok1 := poker.ParseRank(s[0])
	lo, ok2 := poker.ParseRank(s[1])
	if !ok1 || !ok2 {
		return shape{}, fmt.Errorf("invalid rank in: %s", s)
	}
	if lo > hi {
		hi, lo = lo, hi
	}
	sh := shape{hi: hi, lo: lo, suited: true, offsuit: true}
	if len(s) == 3 {
		if hi == lo {
			return shape{}, fmt.Errorf("pocket pairs cannot have suited/offsuit modifier: %s", s)
		}
		switch s[2] {
		case 's':
			sh.offsuit = false
		case 'o':
			sh.suited = false
		default:
			return shape{}, fmt.Errorf("invalid modifier: %c", s[2])
		}
	}
	return sh, nil
}

func (r *Range) addNotation(s string, weight float64) error {
	sh, err := parseShape(s)
	if err != nil {
		return err
	}
	r.addShape(sh, weight)
	return nil
}

// addPlus handles "TT+" (TT and every higher pair) and "KTs+" (kicker
// raised up to one below the top card).
func (r *Range) addPlus(base string, weight float64) error {
	sh, err := parseShape(base)
	if err != nil {
		return err
	}
	if sh.hi == sh.lo {
		for rank := sh.lo; rank <= poker.Ace; rank++ {
			r.addPair(rank, weight)
		}
		return nil
	}
	for kicker := sh.lo; kicker < sh.hi; kicker++ {
		r.addShape(shape{hi: sh.hi, lo: kicker, suited: sh.suited, offsuit: sh.offsuit}, weight)
	}
	return nil
}

// addSpan handles "22-66" and "A5s-A2s".
func (r *Range) addSpan(start, end string, weight float64) error {
	a, err := parseShape(strings.TrimSpace(start))
	if err != nil {
		return err
	}
	b, err := parseShape(strings.TrimSpace(end))
	if err != nil {
		return err
	}

	switch {
	case a.hi == a.lo && b.hi == b.lo:
		for rank := min(a.lo, b.lo); rank <= max(a.lo, b.lo); rank++ {
			r.addPair(rank, weight)
		}
	case a.hi == b.hi && a.hi != a.lo && b.hi != b.lo:
		for kicker := min(a.lo, b.lo); kicker <= max(a.lo, b.lo); kicker++ {
			r.addShape(shape{hi: a.hi, lo: kicker, suited: a.suited, offsuit: a.offsuit}, weight)
		}
	default:
		return fmt.Errorf("unsupported range format: %s-%s", start, end)
	}
	return nil
}

func (r *Range) addShape(sh shape, weight float64) {
	if sh.hi == sh.lo {
		r.addPair(sh.hi, weight)
		return
	}
	for s1 := range uint8(4) {
		for s2 := range uint8(4) {
			if (s1 == s2 && sh.suited) || (s1 != s2 && sh.offsuit) {
				r.Add(poker.NewCard(sh.hi, s1), poker.NewCard(sh.lo, s2), weight)
			}
		}
	}
}

// addPair adds all 6 combinations of a pocket pair.
func (r *Range) addPair(rank uint8, weight float64) {
	for s1 := range uint8(4) {
		for s2 := s1 + 1; s2 < 4; s2++ {
			r.Add(poker.NewCard(rank, s1), poker.NewCard(rank, s2), weight)
		}
	}
}

// Add inserts one combination. Later additions overwrite earlier weights;
// a non-positive weight removes the combination.
func (r *Range) Add(c1, c2 poker.Card, weight float64) {
	if c1 == c2 {
		return
	}
	hand := poker.NewHand(c1, c2)
	if weight <= 0 {
		delete(r.hands, hand)
		return
	}
	r.hands[hand] = min(weight, 1)
}

// Contains reports whether the two cards form a combination in the range.
func (r *Range) Contains(c1, c2 poker.Card) bool {
	_, ok := r.hands[poker.NewHand(c1, c2)]
	return ok
}

// Size returns the number of combinations in the range.
func (r *Range) Size() int {
	return len(r.hands)
}

// Hands returns all combinations sorted by bitset value.
func (r *Range) Hands() []poker.Hand {
	hands := make([]poker.Hand, 0, len(r.hands))
	for hand := range r.hands {
		hands = append(hands, hand)
	}
	slices.Sort(hands)
	return hands
}

// Weight returns the weight of a combination, 0 if absent.
func (r *Range) Weight(hand poker.Hand) float64 {
	return r.hands[hand]
}

// liveCombos returns the combinations that share no card with dead and
// their cumulative weights, in a stable order.
func (r *Range) liveCombos(dead poker.Hand) ([]poker.Hand, []float64) {
	var combos []poker.Hand
	var cumulative []float64
	total := 0.0
	for _, hand := range r.Hands() {
		if hand&dead != 0 {
			continue
		}
		total += r.hands[hand]
		combos = append(combos, hand)
		cumulative = append(cumulative, total)
	}
	return combos, cumulative
}
