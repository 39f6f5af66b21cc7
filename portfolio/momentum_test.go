package portfolio

import (
	"fmt"
	"math"
	"testing"
)

func TestScoreClosesMomentum(t *testing.T) {
	closes := []float64{100, 105, 110, 120}

	sc, ok := ScoreCloses("AAPL", closes)
	if !ok {
		t.Fatal("expected a score")
	}
	if math.Abs(sc.Momentum-0.20) > 1e-9 {
		t.Errorf("momentum %.4f, want 0.20", sc.Momentum)
	}
	if sc.Price != 120 {
		t.Errorf("price %.2f, want 120", sc.Price)
	}
	// Series shorter than the long SMA window stays unlabeled
	if sc.Pattern != "Normal" {
		t.Errorf("pattern %q, want Normal", sc.Pattern)
	}
}

func TestScoreClosesTooShort(t *testing.T) {
	if _, ok := ScoreCloses("AAPL", []float64{100}); ok {
		t.Error("single observation should not score")
	}
	if _, ok := ScoreCloses("AAPL", nil); ok {
		t.Error("empty series should not score")
	}
	if _, ok := ScoreCloses("AAPL", []float64{0, 100}); ok {
		t.Error("zero first close should not score")
	}
}

func TestScoreClosesGoldenCross(t *testing.T) {
	// Rising series: the short SMA sits above the long SMA
	closes := make([]float64, 220)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	sc, ok := ScoreCloses("NVDA", closes)
	if !ok {
		t.Fatal("expected a score")
	}
	if sc.Pattern != "Golden Cross" {
		t.Errorf("pattern %q, want Golden Cross", sc.Pattern)
	}
}

func TestTopMomentumKeepsFiveWithStableTies(t *testing.T) {
	var candidates []Scored
	for i := 0; i < 8; i++ {
		candidates = append(candidates, Scored{
			Symbol: fmt.Sprintf("S%02d", i),
			Score:  float64(i % 4), // duplicate scores force tie-breaking
		})
	}

	first := TopMomentum(append([]Scored(nil), candidates...))
	if len(first) != 5 {
		t.Fatalf("expected 5 leaders, got %d", len(first))
	}
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if cur.Score > prev.Score {
			t.Errorf("leaders out of order at %d: %+v before %+v", i, prev, cur)
		}
		if cur.Score == prev.Score && cur.Symbol < prev.Symbol {
			t.Errorf("tie not broken alphabetically at %d", i)
		}
	}

	second := TopMomentum(append([]Scored(nil), candidates...))
	for i := range first {
		if first[i].Symbol != second[i].Symbol {
			t.Fatalf("reruns disagree: %v vs %v", first, second)
		}
	}
}

func TestEqualWeights(t *testing.T) {
	scored := []Scored{{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"}, {Symbol: "D"}}

	weights := EqualWeights(scored)
	for sym, w := range weights {
		if math.Abs(w-0.25) > 1e-9 {
			t.Errorf("%s weight %.4f, want 0.25", sym, w)
		}
	}
	if len(EqualWeights(nil)) != 0 {
		t.Error("empty input should produce an empty map")
	}
}
