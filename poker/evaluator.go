package poker

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidHandSize is returned when fewer than 5 or more than 7 cards are
// evaluated.
var ErrInvalidHandSize = errors.New("hand must have 5 to 7 cards")

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the category label.
func (t HandType) String() string {
	switch t {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandRank is the strength of a five-card hand. Higher values are stronger.
//
// Layout: category in bits 20-23, then up to five ranks (0-12) in
// descending significance, four bits each, from bit 16 down to bit 0.
// Two ranks compare equal only when the five-card hands are equal in
// strength.
type HandRank uint32

// Type returns the hand category.
func (hr HandRank) Type() HandType {
	return HandType(hr >> 20)
}

// String returns a human-readable hand description.
func (hr HandRank) String() string {
	return hr.Type().String()
}

// Compare returns 1 if hr beats other, -1 if it loses and 0 for a tie.
func (hr HandRank) Compare(other HandRank) int {
	return CompareHands(hr, other)
}

// CompareHands compares two hands and returns 1 if a wins, -1 if b wins, 0 for tie.
func CompareHands(a, b HandRank) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func encodeRank(t HandType, ranks ...uint8) HandRank {
	hr := HandRank(t) << 20
	shift := 16
	for _, r := range ranks {
		hr |= HandRank(r) << shift
		shift -= 4
	}
	return hr
}

// Evaluate returns the rank of the best five-card hand among 5 to 7 cards.
func Evaluate(cards ...Card) (HandRank, error) {
	hr, _, err := Best(cards...)
	return hr, err
}

// Best returns the rank of the strongest five-card subset of cards together
// with that subset. Every C(n,5) subset is scored.
func Best(cards ...Card) (HandRank, [5]Card, error) {
	var best [5]Card
	if len(cards) < 5 || len(cards) > 7 {
		return 0, best, fmt.Errorf("%w: got %d", ErrInvalidHandSize, len(cards))
	}
	seen := NewHand(cards...)
	if seen.CountCards() != len(cards) {
		return 0, best, fmt.Errorf("%w: %v", ErrDuplicateCard, Codes(cards))
	}
	for _, c := range cards {
		if !c.IsValid() {
			return 0, best, fmt.Errorf("%w: %#x", ErrInvalidCardCode, uint64(c))
		}
	}

	var bestRank HandRank
	first := true
	forEachFive(cards, func(sub [5]Card) {
		hr := scoreFive(NewHand(sub[:]...))
		if first || hr > bestRank {
			bestRank, best, first = hr, sub, false
		}
	})
	return bestRank, best, nil
}

// EvaluateHand is Evaluate for a bitset holding 5 to 7 cards. It panics on
// any other size; callers build the set from disjoint hole and board cards.
func EvaluateHand(h Hand) HandRank {
	cards := h.Cards()
	if len(cards) < 5 || len(cards) > 7 {
		panic(fmt.Sprintf("poker: EvaluateHand with %d cards", len(cards)))
	}
	var bestRank HandRank
	forEachFive(cards, func(sub [5]Card) {
		if hr := scoreFive(NewHand(sub[:]...)); hr > bestRank {
			bestRank = hr
		}
	})
	return bestRank
}

// forEachFive calls fn with every five-card subset of cards in
// lexicographic index order.
func forEachFive(cards []Card, fn func([5]Card)) {
	n := len(cards)
	var sub [5]Card
	for a := 0; a < n-4; a++ {
		sub[0] = cards[a]
		for b := a + 1; b < n-3; b++ {
			sub[1] = cards[b]
			for c := b + 1; c < n-2; c++ {
				sub[2] = cards[c]
				for d := c + 1; d < n-1; d++ {
					sub[3] = cards[d]
					for e := d + 1; e < n; e++ {
						sub[4] = cards[e]
						fn(sub)
					}
				}
			}
		}
	}
}

// scoreFive ranks exactly five cards.
func scoreFive(hand Hand) HandRank {
	var suitMasks [4]uint16
	var rankMask uint16
	for suit := range uint8(4) {
		suitMasks[suit] = hand.GetSuitMask(suit)
		rankMask |= suitMasks[suit]
	}

	flush := false
	for _, m := range suitMasks {
		if bits.OnesCount16(m) == 5 {
			flush = true
		}
	}
	straightHigh, straight := straightHighMask(rankMask)

	switch {
	case flush && straight:
		return encodeRank(StraightFlush, straightHigh)
	case flush:
		return encodeRank(Flush, topRanks(rankMask, 5)...)
	case straight:
		return encodeRank(Straight, straightHigh)
	}

	s0, s1, s2, s3 := suitMasks[0], suitMasks[1], suitMasks[2], suitMasks[3]
	quads := s0 & s1 & s2 & s3
	trips := ((s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)) &^ quads
	pairs := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ (trips | quads)

	switch {
	case quads != 0:
		q := highestRank(quads)
		return encodeRank(FourOfAKind, q, highestRank(rankMask&^(1<<q)))
	case trips != 0 && pairs != 0:
		return encodeRank(FullHouse, highestRank(trips), highestRank(pairs))
	case trips != 0:
		t := highestRank(trips)
		return encodeRank(ThreeOfAKind, append([]uint8{t}, topRanks(rankMask&^(1<<t), 2)...)...)
	case bits.OnesCount16(pairs) == 2:
		hi := highestRank(pairs)
		lo := highestRank(pairs &^ (1 << hi))
		return encodeRank(TwoPair, hi, lo, highestRank(rankMask&^pairs))
	case pairs != 0:
		p := highestRank(pairs)
		return encodeRank(Pair, append([]uint8{p}, topRanks(rankMask&^(1<<p), 3)...)...)
	default:
		return encodeRank(HighCard, topRanks(rankMask, 5)...)
	}
}

// highestRank returns the highest rank present in a non-empty mask.
func highestRank(mask uint16) uint8 {
	return uint8(bits.Len16(mask) - 1)
}

// topRanks returns up to n ranks from mask in descending order.
func topRanks(mask uint16, n int) []uint8 {
	out := make([]uint8, 0, n)
	for mask != 0 && len(out) < n {
		top := highestRank(mask)
		out = append(out, top)
		mask &^= 1 << top
	}
	return out
}

// straightHighMask returns the high-card rank of the best straight in mask.
// The wheel (A-2-3-4-5) reports a five-high straight.
func straightHighMask(mask uint16) (uint8, bool) {
	const wheelMask = 0x100F // Ace + 2-3-4-5
	mask &= 0x1FFF

	// Bitwise cascade identifies consecutive sequences in one pass.
	if seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4); seq != 0 {
		return highestRank(seq) + 4, true
	}
	if mask&wheelMask == wheelMask {
		return Five, true
	}
	return 0, false
}
