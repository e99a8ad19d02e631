// Package refeval scores showdowns with github.com/paulhankin/poker so the
// simulator can run against an independent evaluator.
package refeval

import (
	"errors"
	"fmt"

	ph "github.com/paulhankin/poker"

	"github.com/lox/pokerequity/poker"
)

var errInvalidCard = errors.New("invalid card")

// orientation is +1 when the library scores stronger hands higher and -1
// otherwise. Showdown always returns higher-is-stronger scores.
var orientation = func() int64 {
	royal := [5]ph.Card{
		mustConvert(poker.MustParseCard("As")), mustConvert(poker.MustParseCard("Ks")),
		mustConvert(poker.MustParseCard("Qs")), mustConvert(poker.MustParseCard("Js")),
		mustConvert(poker.MustParseCard("Ts")),
	}
	low := [5]ph.Card{
		mustConvert(poker.MustParseCard("7c")), mustConvert(poker.MustParseCard("5d")),
		mustConvert(poker.MustParseCard("4h")), mustConvert(poker.MustParseCard("3s")),
		mustConvert(poker.MustParseCard("2c")),
	}
	if ph.Eval5(&royal) < ph.Eval5(&low) {
		return -1
	}
	return 1
}()

// Convert maps a card onto the library's representation, where aces have
// rank 1.
func Convert(c poker.Card) (ph.Card, error) {
	if !c.IsValid() {
		var zero ph.Card
		return zero, fmt.Errorf("%w: %d", errInvalidCard, uint64(c))
	}

	var s ph.Suit
	switch c.Suit() {
	case poker.Clubs:
		s = ph.Club
	case poker.Diamonds:
		s = ph.Diamond
	case poker.Hearts:
		s = ph.Heart
	default:
		s = ph.Spade
	}

	r := ph.Rank(c.Rank() + 2)
	if c.Rank() == poker.Ace {
		r = ph.Rank(1)
	}
	return ph.MakeCard(s, r)
}

func mustConvert(c poker.Card) ph.Card {
	out, err := Convert(c)
	if err != nil {
		panic(err)
	}
	return out
}

// Showdown scores a 5 to 7 card holding. It satisfies analysis.Showdown.
func Showdown(cards poker.Hand) int64 {
	list := cards.Cards()
	converted := make([]ph.Card, len(list))
	for i, c := range list {
		converted[i] = mustConvert(c)
	}

	switch len(converted) {
	case 7:
		var a7 [7]ph.Card
		copy(a7[:], converted)
		return orientation * int64(ph.Eval7(&a7))
	case 5, 6:
		return bestOfFive(converted)
	default:
		panic(fmt.Sprintf("refeval: showdown needs 5 to 7 cards, got %d", len(converted)))
	}
}

func bestOfFive(cards []ph.Card) int64 {
	var (
		five  [5]ph.Card
		best  int64
		found bool
	)
	n := len(cards)
	for skip := 0; skip < n; skip++ {
		if n == 5 && skip > 0 {
			break
		}
		k := 0
		for i, c := range cards {
			if n == 6 && i == skip {
				continue
			}
			five[k] = c
			k++
		}
		score := orientation * int64(ph.Eval5(&five))
		if !found || score > best {
			best, found = score, true
		}
	}
	return best
}

// Describe names the best hand using the library's wording.
func Describe(cards []poker.Card) (string, error) {
	converted := make([]ph.Card, len(cards))
	for i, c := range cards {
		out, err := Convert(c)
		if err != nil {
			return "", err
		}
		converted[i] = out
	}
	return ph.Describe(converted)
}
