package portfolio

import (
	"math"
	"testing"
)

func weightsSum(weights map[string]float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	return total
}

func TestTemplateByRiskSumsToOne(t *testing.T) {
	tests := []struct {
		name      string
		risk      string
		microCaps bool
	}{
		{"low core", "low", false},
		{"medium core", "medium", false},
		{"high core", "high", false},
		{"low with sleeve", "low", true},
		{"high with sleeve", "high", true},
		{"unknown falls back", "yolo", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights := TemplateByRisk(tt.risk, tt.microCaps)
			if sum := weightsSum(weights); math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("weights sum to %.6f, want 1", sum)
			}
		})
	}
}

func TestTemplateByRiskSleeveShare(t *testing.T) {
	weights := TemplateByRisk("high", true)

	sleeve := 0.0
	for _, sym := range MicroPool {
		w, ok := weights[sym]
		if !ok {
			t.Fatalf("expected %s in the sleeve", sym)
		}
		sleeve += w
	}
	// High risk carves out 20% for the sleeve
	if math.Abs(sleeve-0.20) > 1e-9 {
		t.Errorf("sleeve share %.4f, want 0.20", sleeve)
	}
}

func TestTemplateByRiskUnknownFallsBackToMedium(t *testing.T) {
	got := TemplateByRisk("extreme", false)
	want := TemplateByRisk("medium", false)

	if len(got) != len(want) {
		t.Fatalf("expected the medium template, got %v", got)
	}
	for sym, w := range want {
		if math.Abs(got[sym]-w) > 1e-9 {
			t.Errorf("weight mismatch for %s: %.4f vs %.4f", sym, got[sym], w)
		}
	}
}

func TestNormalizeZeroSum(t *testing.T) {
	in := map[string]float64{"A": 0, "B": 0}
	out := Normalize(in)
	if out["A"] != 0 || out["B"] != 0 {
		t.Errorf("zero-sum input should pass through, got %v", out)
	}
}

func TestSortedSymbolsDeterministic(t *testing.T) {
	weights := map[string]float64{"VOO": 0.4, "AAPL": 0.3, "MSFT": 0.3}

	want := []string{"VOO", "AAPL", "MSFT"}
	for i := 0; i < 5; i++ {
		got := SortedSymbols(weights)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("run %d: expected %v, got %v", i, want, got)
			}
		}
	}
}
