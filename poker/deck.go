package poker

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	// ErrUnknownCardRemoval is returned when a card is removed from a deck
	// that does not hold it. It signals that a card was counted twice.
	ErrUnknownCardRemoval = errors.New("card not in deck")
	// ErrDeckExhausted is returned when more cards are drawn than remain.
	ErrDeckExhausted = errors.New("deck exhausted")
)

// Deck is the set of cards not yet seen, kept in a fixed order so that a
// seeded draw is reproducible. Decks are values: Excluding and Draw return
// new decks and never modify the receiver.
type Deck struct {
	cards []Card
}

// FullDeck returns all 52 cards ordered suit-major, rank-minor
// (2c..Ac, 2d..Ad, 2h..Ah, 2s..As).
func FullDeck() Deck {
	cards := make([]Card, 0, cardBits)
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return Deck{cards: cards}
}

// Len returns the number of cards left.
func (d Deck) Len() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards in deck order.
func (d Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Hand returns the remaining cards as a bitset.
func (d Deck) Hand() Hand {
	return NewHand(d.cards...)
}

// Contains reports whether c is still in the deck.
func (d Deck) Contains(c Card) bool {
	for _, dc := range d.cards {
		if dc == c {
			return true
		}
	}
	return false
}

// Excluding returns the deck without the given cards. Every card must be
// present exactly once; removing a missing card fails with
// ErrUnknownCardRemoval.
func (d Deck) Excluding(cards ...Card) (Deck, error) {
	remove := NewHand(cards...)
	if remove.CountCards() != len(cards) {
		return Deck{}, fmt.Errorf("%w: %v listed twice", ErrUnknownCardRemoval, Codes(cards))
	}
	if missing := remove &^ d.Hand(); missing != 0 {
		return Deck{}, fmt.Errorf("%w: %s", ErrUnknownCardRemoval, missing)
	}
	out := make([]Card, 0, len(d.cards)-len(cards))
	for _, c := range d.cards {
		if !remove.HasCard(c) {
			out = append(out, c)
		}
	}
	return Deck{cards: out}, nil
}

// Draw removes n cards uniformly at random without replacement. It returns
// the drawn cards and the remaining deck.
func (d Deck) Draw(rng *rand.Rand, n int) ([]Card, Deck, error) {
	if n < 0 || n > len(d.cards) {
		return nil, Deck{}, fmt.Errorf("%w: want %d cards, %d left", ErrDeckExhausted, n, len(d.cards))
	}
	work := d.Cards()
	// Partial Fisher-Yates: the last n slots end up holding the draw.
	last := len(work) - 1
	for i := 0; i < n; i++ {
		j := rng.IntN(last - i + 1)
		work[j], work[last-i] = work[last-i], work[j]
	}
	split := len(work) - n
	drawn := make([]Card, n)
	copy(drawn, work[split:])
	return drawn, Deck{cards: work[:split]}, nil
}

// Shuffle returns the remaining cards in a random order.
func (d Deck) Shuffle(rng *rand.Rand) []Card {
	work := d.Cards()
	for i := len(work) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		work[i], work[j] = work[j], work[i]
	}
	return work
}
