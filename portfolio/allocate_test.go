package portfolio

import (
	"math"
	"testing"
)

func TestAllocateSharesWholeShares(t *testing.T) {
	weights := map[string]float64{"SPY": 0.6, "BND": 0.4}
	prices := map[string]float64{"SPY": 520, "BND": 72}

	allocations := AllocateShares(10000, weights, prices)

	total := 0.0
	for _, a := range allocations {
		if a.Shares != math.Floor(a.Shares) {
			t.Errorf("%s: fractional share count %.4f", a.Symbol, a.Shares)
		}
		total += a.Shares * a.Price
	}
	if total > 10000 {
		t.Errorf("allocated %.2f over the 10000 budget", total)
	}
}

func TestAllocateSharesSkipsUnaffordable(t *testing.T) {
	weights := map[string]float64{"BRKA": 0.5, "BND": 0.5}
	prices := map[string]float64{"BRKA": 700000, "BND": 72}

	allocations := AllocateShares(1000, weights, prices)

	for _, a := range allocations {
		if a.Symbol == "BRKA" {
			t.Errorf("BRKA slice cannot afford a share, got %+v", a)
		}
	}
}

func TestAllocateSharesSweepsLeftover(t *testing.T) {
	// One cheap symbol at a tiny weight leaves most of the budget as cash,
	// which should sweep into the first affordable sweep ETF
	weights := map[string]float64{"F": 0.01}
	prices := map[string]float64{"F": 12, "SPY": 100}

	allocations := AllocateShares(1000, weights, prices)

	var swept bool
	for _, a := range allocations {
		if a.Symbol == "SPY" && a.Shares >= 1 {
			swept = true
		}
	}
	if !swept {
		t.Errorf("expected leftover cash swept into SPY, got %+v", allocations)
	}
}

func TestAllocateSharesMissingPriceSkipped(t *testing.T) {
	weights := map[string]float64{"XXXX": 1.0}
	prices := map[string]float64{}

	allocations := AllocateShares(1000, weights, prices)
	if len(allocations) != 0 {
		t.Errorf("expected no allocations without prices, got %+v", allocations)
	}
}
