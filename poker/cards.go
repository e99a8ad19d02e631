// Package poker implements the card model, deck bookkeeping and hand
// evaluation used by the equity simulator.
//
// Cards are single bits in a 52-bit space so that hands, boards and dead
// card sets can be combined with plain bitwise operations.
package poker

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Ranks, deuce through ace.
const (
	Two uint8 = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Suits.
const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "cdhs"
	cardBits  = 52
)

var (
	// ErrInvalidCardCode is returned when a card code is not exactly one rank
	// character followed by one suit character.
	ErrInvalidCardCode = errors.New("invalid card code")
	// ErrDuplicateCard is returned when the same card appears twice in a set
	// of cards that must be distinct.
	ErrDuplicateCard = errors.New("duplicate card")
)

// Card is a single playing card encoded as one bit: suit*13 + rank.
type Card uint64

// NewCard creates a card from a rank (0-12) and suit (0-3).
func NewCard(rank, suit uint8) Card {
	return Card(1) << (uint(suit)*13 + uint(rank))
}

func (c Card) index() int {
	return bits.TrailingZeros64(uint64(c))
}

// Rank returns the card rank (0 = deuce, 12 = ace).
func (c Card) Rank() uint8 {
	return uint8(c.index() % 13)
}

// Suit returns the card suit (0-3).
func (c Card) Suit() uint8 {
	return uint8(c.index() / 13)
}

// IsValid reports whether c encodes exactly one of the 52 cards.
func (c Card) IsValid() bool {
	return c != 0 && c&(c-1) == 0 && c.index() < cardBits
}

// String returns the two-character card code, e.g. "As" or "Td".
func (c Card) String() string {
	if !c.IsValid() {
		return "??"
	}
	return string([]byte{rankChars[c.Rank()], suitChars[c.Suit()]})
}

// ParseRank converts a rank character (23456789TJQKA) to a rank.
func ParseRank(c byte) (uint8, bool) {
	i := strings.IndexByte(rankChars, c)
	if i < 0 {
		return 0, false
	}
	return uint8(i), true
}

// RankChar returns the character for rank r.
func RankChar(r uint8) byte {
	if r > Ace {
		return '?'
	}
	return rankChars[r]
}

// ParseCard parses a canonical card code. The rank is one of
// 23456789TJQKA and the suit one of cdhs; both are case-sensitive.
func ParseCard(code string) (Card, error) {
	if len(code) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCardCode, code)
	}
	rank := strings.IndexByte(rankChars, code[0])
	if rank < 0 {
		return 0, fmt.Errorf("%w: %q has unknown rank %q", ErrInvalidCardCode, code, code[0])
	}
	suit := strings.IndexByte(suitChars, code[1])
	if suit < 0 {
		return 0, fmt.Errorf("%w: %q has unknown suit %q", ErrInvalidCardCode, code, code[1])
	}
	return NewCard(uint8(rank), uint8(suit)), nil
}

// MustParseCard parses a card code and panics on error (for tests and tables).
func MustParseCard(code string) Card {
	c, err := ParseCard(code)
	if err != nil {
		panic(err)
	}
	return c
}

// numericRanks maps numeric rank encodings found in scraped markup to rank
// characters.
var numericRanks = map[string]string{
	"10": "T",
	"11": "J",
	"12": "Q",
	"13": "K",
	"14": "A",
}

// NormalizeCode converts a card code whose rank may be numeric ("10h",
// "14s") into the canonical two-character form and validates it.
func NormalizeCode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCardCode, raw)
	}
	rank, suit := raw[:len(raw)-1], raw[len(raw)-1:]
	if mapped, ok := numericRanks[rank]; ok {
		rank = mapped
	}
	code := rank + suit
	if _, err := ParseCard(code); err != nil {
		return "", err
	}
	return code, nil
}

// ParseCards parses card codes in order. Duplicates are rejected.
func ParseCards(codes ...string) ([]Card, error) {
	cards := make([]Card, 0, len(codes))
	var seen Hand
	for _, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			return nil, err
		}
		if seen.HasCard(c) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, code)
		}
		seen.AddCard(c)
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for literals; it panics on error.
func MustParseCards(codes ...string) []Card {
	cards, err := ParseCards(codes...)
	if err != nil {
		panic(err)
	}
	return cards
}

// ParseCardString parses concatenated codes such as "AsKd" or "As Kd".
func ParseCardString(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: %q has odd length", ErrInvalidCardCode, s)
	}
	codes := make([]string, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		codes = append(codes, s[i:i+2])
	}
	return ParseCards(codes...)
}

// Codes returns the canonical codes of cards.
func Codes(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// Hand is a set of cards stored as a bitfield.
type Hand uint64

// NewHand creates a hand from cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h.AddCard(c)
	}
	return h
}

// ParseHand parses card codes into a hand, rejecting duplicates.
func ParseHand(codes ...string) (Hand, error) {
	cards, err := ParseCards(codes...)
	if err != nil {
		return 0, err
	}
	return NewHand(cards...), nil
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard reports whether the hand contains c.
func (h Hand) HasCard(c Card) bool {
	return h&Hand(c) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// GetSuitMask returns the 13-bit rank mask for one suit.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16(uint64(h)>>(uint(suit)*13)) & 0x1FFF
}

// Cards returns the cards in ascending bit order (suit-major, rank-minor).
func (h Hand) Cards() []Card {
	out := make([]Card, 0, h.CountCards())
	for rest := uint64(h); rest != 0; rest &= rest - 1 {
		out = append(out, Card(rest&-rest))
	}
	return out
}

// String returns the card codes separated by spaces.
func (h Hand) String() string {
	return strings.Join(Codes(h.Cards()), " ")
}
