package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/lox/pokerequity/poker"
)

func TestParseRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		notation string
		wantSize int
		wantErr  bool
	}{
		{name: "pocket aces", notation: "AA", wantSize: 6},
		{name: "ace king suited", notation: "AKs", wantSize: 4},
		{name: "ace king offsuit", notation: "AKo", wantSize: 12},
		{name: "ace king any", notation: "AK", wantSize: 16},
		{name: "low card first", notation: "KAs", wantSize: 4},
		{name: "multiple hands", notation: "AA,KK,AKs", wantSize: 16},
		{name: "pocket pairs plus", notation: "TT+", wantSize: 30},
		{name: "suited plus", notation: "ATs+", wantSize: 16},
		{name: "offsuit plus", notation: "KJo+", wantSize: 24},
		{name: "any plus", notation: "AT+", wantSize: 64},
		{name: "dash pairs", notation: "22-55", wantSize: 24},
		{name: "dash suited", notation: "A5s-A2s", wantSize: 16},
		{name: "dash offsuit", notation: "A5o-A2o", wantSize: 48},
		{name: "complex range", notation: "TT+, AJs+, KQs", wantSize: 46},
		{name: "weighted", notation: "AA,AKo:0.5", wantSize: 18},
		{name: "invalid rank", notation: "XX", wantErr: true},
		{name: "invalid modifier", notation: "AKx", wantErr: true},
		{name: "pocket pair with modifier", notation: "AAs", wantErr: true},
		{name: "mixed dash", notation: "22-AKs", wantErr: true},
		{name: "bad weight", notation: "AA:1.5", wantErr: true},
		{name: "empty", notation: " , ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := ParseRange(tt.notation)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRange(%q) error = %v, wantErr %v", tt.notation, err, tt.wantErr)
			}
			if !tt.wantErr && r.Size() != tt.wantSize {
				t.Errorf("ParseRange(%q) size = %d, want %d", tt.notation, r.Size(), tt.wantSize)
			}
		})
	}

	if _, err := ParseRange(""); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("empty notation: got %v, want ErrEmptyRange", err)
	}
}

func TestRangeContains(t *testing.T) {
	t.Parallel()
	r := MustParseRange("AA,KK,AKs")

	tests := []struct {
		card1, card2 string
		want         bool
	}{
		{"Ah", "As", true},
		{"Kh", "Kd", true},
		{"Ah", "Kh", true},
		{"Kh", "Ah", true},
		{"Ah", "Kd", false},
		{"Qh", "Qd", false},
		{"Qh", "Qh", false},
	}
	for _, tt := range tests {
		got := r.Contains(poker.MustParseCard(tt.card1), poker.MustParseCard(tt.card2))
		if got != tt.want {
			t.Errorf("Contains(%s, %s) = %v, want %v", tt.card1, tt.card2, got, tt.want)
		}
	}
}

func TestRangeWeights(t *testing.T) {
	t.Parallel()
	r := MustParseRange("AA,AKo:0.25")
	aces := poker.NewHand(poker.MustParseCards("Ah", "As")...)
	bigSlick := poker.NewHand(poker.MustParseCards("Ah", "Kd")...)

	if w := r.Weight(aces); w != 1 {
		t.Errorf("AA weight = %v, want 1", w)
	}
	if w := r.Weight(bigSlick); math.Abs(w-0.25) > 1e-12 {
		t.Errorf("AKo weight = %v, want 0.25", w)
	}

	r.Add(poker.MustParseCard("Ah"), poker.MustParseCard("Kd"), 0)
	if r.Contains(poker.MustParseCard("Ah"), poker.MustParseCard("Kd")) {
		t.Error("zero weight should remove the combination")
	}
}

func TestRangeHands(t *testing.T) {
	t.Parallel()
	hands := MustParseRange("AA").Hands()
	if len(hands) != 6 {
		t.Fatalf("AA should have 6 hands, got %d", len(hands))
	}
	for i, hand := range hands {
		cards := hand.Cards()
		if len(cards) != 2 || cards[0].Rank() != poker.Ace || cards[1].Rank() != poker.Ace {
			t.Errorf("Expected pocket aces, got %s", hand)
		}
		if i > 0 && hands[i-1] >= hand {
			t.Error("Hands should be sorted")
		}
	}
}

func TestRangeLiveCombos(t *testing.T) {
	t.Parallel()
	r := MustParseRange("AA,KK:0.5")
	dead := poker.NewHand(poker.MustParseCards("As", "Kd", "Kc")...)

	combos, cumulative := r.liveCombos(dead)
	// AA loses 3 combos to the As; KK keeps only KhKs.
	if len(combos) != 4 {
		t.Fatalf("expected 4 live combos, got %d", len(combos))
	}
	for _, c := range combos {
		if c&dead != 0 {
			t.Errorf("combo %s uses a dead card", c)
		}
	}
	if total := cumulative[len(cumulative)-1]; math.Abs(total-3.5) > 1e-12 {
		t.Errorf("total weight = %v, want 3.5", total)
	}
}
