package poker

import "fmt"

// HoleCardCategory is a coarse preflop strength label for two hole cards.
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "Premium"
	CategoryStrong  HoleCardCategory = "Strong"
	CategoryMedium  HoleCardCategory = "Medium"
	CategoryWeak    HoleCardCategory = "Weak"
	CategoryTrash   HoleCardCategory = "Trash"
	CategoryUnknown HoleCardCategory = "Unknown"
)

// CategorizeHoleCards buckets a starting hand.
// Premium: JJ+, AK. Strong: TT, AQ, AJ. Medium: 77-99, suited broadway.
// Weak: 22-66, suited connectors and one-gappers. Trash: everything else.
func CategorizeHoleCards(c1, c2 Card) HoleCardCategory {
	if !c1.IsValid() || !c2.IsValid() || c1 == c2 {
		return CategoryUnknown
	}

	lo, hi := c1.Rank(), c2.Rank()
	if lo > hi {
		lo, hi = hi, lo
	}
	pair := lo == hi
	suited := c1.Suit() == c2.Suit()

	switch {
	case pair && lo >= Jack, lo == King && hi == Ace:
		return CategoryPremium
	case pair && lo == Ten, hi == Ace && (lo == Queen || lo == Jack):
		return CategoryStrong
	case pair && lo >= Seven, suited && lo >= Ten:
		return CategoryMedium
	case pair, suited && hi-lo <= 2:
		return CategoryWeak
	default:
		return CategoryTrash
	}
}

// DescribeHoleCards returns a short preflop description such as
// "AKs (Premium)" or "72o (Trash)".
func DescribeHoleCards(c1, c2 Card) string {
	cat := CategorizeHoleCards(c1, c2)
	if cat == CategoryUnknown {
		return string(cat)
	}
	hi, lo := c1, c2
	if lo.Rank() > hi.Rank() {
		hi, lo = lo, hi
	}
	shape := ""
	switch {
	case hi.Rank() == lo.Rank():
	case hi.Suit() == lo.Suit():
		shape = "s"
	default:
		shape = "o"
	}
	return fmt.Sprintf("%c%c%s (%s)", RankChar(hi.Rank()), RankChar(lo.Rank()), shape, cat)
}
