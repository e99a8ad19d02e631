package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lox/pokerequity/internal/randutil"
	"github.com/lox/pokerequity/poker"
)

func cards(codes ...string) []poker.Card {
	return poker.MustParseCards(codes...)
}

func TestEquityResult(t *testing.T) {
	t.Parallel()
	result := EquityResult{
		Wins:   300,
		Ties:   50,
		Losses: 650,
		Share:  325,
		Trials: 1000,
	}

	tests := []struct {
		name   string
		got    float64
		expect float64
	}{
		{"WinRate", result.WinRate(), 0.3},
		{"TieRate", result.TieRate(), 0.05},
		{"LossRate", result.LossRate(), 0.65},
		{"Equity", result.Equity(), 0.325},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.expect) > 0.001 {
				t.Errorf("%s() = %v, want %v", tt.name, tt.got, tt.expect)
			}
		})
	}

	if (EquityResult{}).Equity() != 0 {
		t.Error("empty result should have zero equity")
	}
}

func TestConfidenceInterval(t *testing.T) {
	t.Parallel()
	result := EquityResult{Wins: 500, Losses: 9500, Share: 500, Trials: 10000}

	lower, upper := result.ConfidenceInterval()
	if lower < 0.04 || lower > 0.05 {
		t.Errorf("Lower CI = %v, expected around 0.046", lower)
	}
	if upper < 0.05 || upper > 0.06 {
		t.Errorf("Upper CI = %v, expected around 0.054", upper)
	}

	exact := EquityResult{Wins: 10, Losses: 34, Share: 10, Trials: 44, Exhaustive: true}
	lower, upper = exact.ConfidenceInterval()
	if lower != upper || lower != exact.Equity() {
		t.Errorf("exhaustive result should have zero-width interval, got [%v, %v]", lower, upper)
	}
}

func TestEstimateEquityErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		hero  []poker.Card
		board []poker.Card
		opp   Opponent
		want  error
	}{
		{"no hole cards", nil, nil, RandomOpponent(), ErrInsufficientHoleCards},
		{"one hole card", cards("As"), nil, RandomOpponent(), ErrInsufficientHoleCards},
		{"three hole cards", cards("As", "Ks", "Qs"), nil, RandomOpponent(), ErrTooManyHoleCards},
		{"six board cards", cards("As", "Ks"), cards("2c", "3c", "4c", "5c", "6c", "7c"), RandomOpponent(), ErrInvalidBoardLength},
		{"hero card on board", cards("As", "Ks"), cards("As", "3c", "4c"), RandomOpponent(), ErrUnknownCardRemoval},
		{"opponent shares hero card", cards("As", "Ks"), nil, SpecificOpponent(poker.MustParseCard("As"), poker.MustParseCard("Qd")), ErrUnknownCardRemoval},
		{"too many opponents", cards("As", "Ks"), nil, RandomOpponents(23), ErrDeckExhausted},
		{"range fully blocked", cards("As", "Ah"), cards("Ad", "7c", "2h"), RangeOpponent(MustParseRange("AA")), ErrEmptyRange},
		{"nil range", cards("As", "Ah"), nil, RangeOpponent(nil), ErrEmptyRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := EstimateEquity(ctx, tt.hero, tt.board, tt.opp, WithSeed(1), WithTrials(100))
			if !errors.Is(err, tt.want) {
				t.Errorf("got error %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEstimateEquityDeterministic(t *testing.T) {
	t.Parallel()
	hero := cards("Jh", "Tc")
	board := cards("9d", "2s", "Kc")

	run := func() EquityResult {
		res, err := EstimateEquity(context.Background(), hero, board, RandomOpponents(2),
			WithSeed(2024), WithTrials(4000), WithWorkers(4))
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	a, b := run(), run()
	if a != b {
		t.Errorf("same seed produced different results: %+v vs %+v", a, b)
	}
	if a.Trials != 4000 {
		t.Errorf("Trials = %d, want 4000", a.Trials)
	}
	if a.Wins+a.Ties+a.Losses != a.Trials {
		t.Errorf("outcomes do not add up: %+v", a)
	}
	if eq := a.Equity(); eq < 0 || eq > 1 {
		t.Errorf("equity %v outside [0, 1]", eq)
	}
}

func TestEstimateEquityBounds(t *testing.T) {
	t.Parallel()
	rng := randutil.New(11)
	for i := 0; i < 20; i++ {
		dealt := poker.FullDeck().Shuffle(rng)
		boardLen := []int{0, 3, 4, 5}[i%4]
		hero, board := dealt[:2], dealt[2:2+boardLen]

		res, err := EstimateEquity(context.Background(), hero, board, RandomOpponent(),
			WithSeed(int64(i)), WithTrials(300))
		if err != nil {
			t.Fatalf("%v on %v: %v", poker.Codes(hero), poker.Codes(board), err)
		}
		if eq := res.Equity(); eq < 0 || eq > 1 {
			t.Errorf("equity %v outside [0, 1] for %v on %v", eq, poker.Codes(hero), poker.Codes(board))
		}
	}
}

func TestEstimateEquityAceKingSuitedPreflop(t *testing.T) {
	t.Parallel()
	res, err := EstimateEquity(context.Background(), cards("As", "Ks"), nil, RandomOpponent(),
		WithSeed(42), WithTrials(10000))
	if err != nil {
		t.Fatal(err)
	}
	if res.Exhaustive {
		t.Error("preflop against a random hand should be sampled")
	}
	if eq := res.Equity(); math.Abs(eq-0.67) > 0.03 {
		t.Errorf("AKs vs random = %.3f, want 0.67 ± 0.03", eq)
	}
}

func TestEstimateEquityFloppedQuads(t *testing.T) {
	t.Parallel()
	res, err := EstimateEquity(context.Background(), cards("2h", "2d"), cards("2c", "2s", "Kh"),
		RandomOpponent(), WithSeed(5))
	if err != nil {
		t.Fatal(err)
	}
	if eq := res.Equity(); eq < 0.95 {
		t.Errorf("flopped quads equity = %.3f, want >= 0.95", eq)
	}
}

func TestEstimateEquitySymmetry(t *testing.T) {
	t.Parallel()
	a := cards("As", "Ks")
	c := cards("Qh", "Qd")

	tests := []struct {
		name      string
		board     []poker.Card
		tolerance float64
	}{
		{"preflop sampled", nil, 0.08},
		{"flop enumerated", cards("Kd", "7c", "2s"), 1e-9},
		{"turn enumerated", cards("Kd", "7c", "2s", "Qs"), 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ac, err := EstimateEquity(context.Background(), a, tt.board, SpecificOpponent(c[0], c[1]), WithSeed(1))
			if err != nil {
				t.Fatal(err)
			}
			ca, err := EstimateEquity(context.Background(), c, tt.board, SpecificOpponent(a[0], a[1]), WithSeed(2))
			if err != nil {
				t.Fatal(err)
			}
			if sum := ac.Equity() + ca.Equity(); math.Abs(sum-1) > tt.tolerance {
				t.Errorf("equities should sum to 1, got %.4f + %.4f = %.4f", ac.Equity(), ca.Equity(), sum)
			}
		})
	}
}

func TestEstimateEquityExhaustive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("river against specific hand", func(t *testing.T) {
		t.Parallel()
		res, err := EstimateEquity(ctx, cards("As", "Ah"), cards("Kd", "Kc", "7s", "2h", "3d"),
			SpecificOpponent(poker.MustParseCard("Qh"), poker.MustParseCard("Qd")))
		if err != nil {
			t.Fatal(err)
		}
		if !res.Exhaustive || res.Trials != 1 || res.Equity() != 1 {
			t.Errorf("expected a single exact win, got %+v", res)
		}
	})

	t.Run("river against random hand", func(t *testing.T) {
		t.Parallel()
		// The board plays for everyone.
		res, err := EstimateEquity(ctx, cards("2c", "3d"), cards("As", "Ks", "Qs", "Js", "Ts"), RandomOpponent())
		if err != nil {
			t.Fatal(err)
		}
		if !res.Exhaustive || res.Trials != 990 {
			t.Errorf("expected 990 enumerated opponent hands, got %+v", res)
		}
		if res.Ties != res.Trials || res.Equity() != 0.5 {
			t.Errorf("every deal should split, got %+v", res)
		}
	})

	t.Run("flop against specific hand", func(t *testing.T) {
		t.Parallel()
		res, err := EstimateEquity(ctx, cards("Ah", "Kh"), cards("Qh", "Jh", "2c"),
			SpecificOpponent(poker.MustParseCard("2d"), poker.MustParseCard("2s")))
		if err != nil {
			t.Fatal(err)
		}
		if !res.Exhaustive || res.Trials != 990 {
			t.Errorf("expected C(45,2) = 990 run-outs, got %+v", res)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		res, err := EstimateEquity(ctx, cards("2c", "3d"), cards("As", "Ks", "Qs", "Js", "Ts"),
			RandomOpponent(), WithExhaustive(false), WithTrials(500), WithSeed(3))
		if err != nil {
			t.Fatal(err)
		}
		if res.Exhaustive || res.Trials != 500 || res.Equity() != 0.5 {
			t.Errorf("expected 500 sampled splits, got %+v", res)
		}
	})
}

func TestEstimateEquityMultiway(t *testing.T) {
	t.Parallel()
	hero := cards("Ah", "Ad")
	headsUp, err := EstimateEquity(context.Background(), hero, nil, RandomOpponent(), WithSeed(9), WithTrials(5000))
	if err != nil {
		t.Fatal(err)
	}
	threeWay, err := EstimateEquity(context.Background(), hero, nil, RandomOpponents(3), WithSeed(9), WithTrials(5000))
	if err != nil {
		t.Fatal(err)
	}
	if headsUp.Equity() < 0.8 {
		t.Errorf("AA heads-up = %.3f, want about 0.85", headsUp.Equity())
	}
	if threeWay.Equity() >= headsUp.Equity() || threeWay.Equity() < 0.5 {
		t.Errorf("AA vs three = %.3f, want below heads-up %.3f and above 0.5", threeWay.Equity(), headsUp.Equity())
	}
}

func TestEstimateEquityRangeOpponent(t *testing.T) {
	t.Parallel()
	res, err := EstimateEquity(context.Background(), cards("Ah", "Ad"), nil,
		RangeOpponent(MustParseRange("KK")), WithSeed(4), WithTrials(10000))
	if err != nil {
		t.Fatal(err)
	}
	if eq := res.Equity(); math.Abs(eq-0.82) > 0.03 {
		t.Errorf("AA vs KK = %.3f, want about 0.82", eq)
	}

	// Hero holds three kings, so every KK combination is blocked and only
	// the lightly weighted aces remain.
	blocked, err := EstimateEquity(context.Background(), cards("Ks", "Kh"), cards("Kd", "7c", "2s"),
		RangeOpponent(MustParseRange("KK,AA:0.0001")), WithSeed(4), WithTrials(2000))
	if err != nil {
		t.Fatal(err)
	}
	if blocked.Equity() < 0.5 {
		t.Errorf("set of kings vs mostly AA = %.3f, want a favourite", blocked.Equity())
	}
}

func TestEstimateEquityCustomShowdown(t *testing.T) {
	t.Parallel()
	everyoneTies := func(poker.Hand) int64 { return 0 }
	res, err := EstimateEquity(context.Background(), cards("As", "Ks"), nil, RandomOpponents(2),
		WithShowdown(everyoneTies), WithTrials(600), WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	if res.Ties != 600 || math.Abs(res.Equity()-1.0/3) > 1e-9 {
		t.Errorf("three-way splits should give 1/3 equity, got %+v", res)
	}
}

func TestEstimateEquityCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := EstimateEquity(ctx, cards("As", "Ks"), nil, RandomOpponent(), WithTrials(5000)); !errors.Is(err, context.Canceled) {
		t.Errorf("sampling: got %v, want context.Canceled", err)
	}
	if _, err := EstimateEquity(ctx, cards("As", "Ks"), cards("2c", "7d", "9h", "Jc", "3s"), RandomOpponent()); !errors.Is(err, context.Canceled) {
		t.Errorf("enumeration: got %v, want context.Canceled", err)
	}
}

func TestQuickEquity(t *testing.T) {
	t.Parallel()
	eq, err := QuickEquity([]string{"As", "Ks"}, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := QuickEquity([]string{"As", "Ks"}, nil, 1)
	if eq != again {
		t.Errorf("QuickEquity should be deterministic: %v vs %v", eq, again)
	}
	if _, err := QuickEquity([]string{"As", "Xx"}, nil, 1); !errors.Is(err, poker.ErrInvalidCardCode) {
		t.Errorf("expected ErrInvalidCardCode, got %v", err)
	}
}

func TestForEachCombo(t *testing.T) {
	t.Parallel()
	deck := poker.FullDeck().Cards()[:7]
	seen := make(map[poker.Hand]bool)
	err := forEachCombo(deck, 3, func(h poker.Hand) error {
		if h.CountCards() != 3 || seen[h] {
			t.Fatalf("bad or repeated combination %s", h)
		}
		seen[h] = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != binomial(7, 3) {
		t.Errorf("saw %d combinations, want %d", len(seen), binomial(7, 3))
	}
	if binomial(45, 2) != 990 || binomial(48, 5) != 1712304 || binomial(3, 5) != 0 {
		t.Error("binomial is wrong")
	}
}

func BenchmarkEstimateEquity(b *testing.B) {
	hero := cards("As", "Ks")
	for i := 0; i < b.N; i++ {
		_, _ = EstimateEquity(context.Background(), hero, nil, RandomOpponent(), WithTrials(1000), WithSeed(int64(i)))
	}
}
