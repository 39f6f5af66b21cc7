// Package portfolio builds target allocations: fixed risk templates with an
// optional micro-cap carve-out, whole-share budgeting, and a momentum-ranked
// builder over stored price history.
package portfolio

import "sort"

// riskBuckets are the core weight maps per risk level
var riskBuckets = map[string]map[string]float64{
	"low": {
		"SPY": 0.60,
		"BND": 0.40,
	},
	"medium": {
		"VOO":  0.40,
		"AAPL": 0.30,
		"MSFT": 0.30,
	},
	"high": {
		"TSLA": 0.34,
		"NVDA": 0.33,
		"AMD":  0.33,
	},
}

// MicroPool holds the tickers used for the micro-cap/speculative sleeve
var MicroPool = []string{"IWM", "ARKK", "SOXL", "TQQQ"}

// microShareByRisk is the sleeve size carved out of the core per risk level
var microShareByRisk = map[string]float64{
	"low":    0.05,
	"medium": 0.10,
	"high":   0.20,
}

// knownETFs marks symbols treated as funds rather than single stocks
var knownETFs = map[string]bool{
	"SPY": true, "BND": true, "VOO": true, "QQQ": true, "VTI": true,
	"VXUS": true, "IEF": true, "IWM": true, "ARKK": true, "SOXL": true,
	"TQQQ": true,
}

// IsETF reports whether a symbol is a known fund
func IsETF(symbol string) bool {
	return knownETFs[symbol]
}

// IsMicroSleeve reports whether a symbol belongs to the speculative sleeve
func IsMicroSleeve(symbol string) bool {
	for _, m := range MicroPool {
		if m == symbol {
			return true
		}
	}
	return false
}

// TemplateByRisk returns normalized target weights for a risk level.
// Unknown risk levels fall back to medium. When microCaps is set, the sleeve
// share for the risk level is carved proportionally out of the core and
// spread evenly across the micro pool.
func TemplateByRisk(riskLevel string, microCaps bool) map[string]float64 {
	core, ok := riskBuckets[riskLevel]
	if !ok {
		core = riskBuckets["medium"]
	}

	weights := make(map[string]float64, len(core)+len(MicroPool))
	for sym, w := range core {
		weights[sym] = w
	}

	if microCaps {
		microShare, ok := microShareByRisk[riskLevel]
		if !ok {
			microShare = microShareByRisk["medium"]
		}
		for sym := range weights {
			weights[sym] *= 1.0 - microShare
		}
		microW := microShare / float64(len(MicroPool))
		for _, sym := range MicroPool {
			weights[sym] = microW
		}
	}

	return Normalize(weights)
}

// Normalize scales weights so they sum to 1. A zero-sum input is returned
// unchanged.
func Normalize(weights map[string]float64) map[string]float64 {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return weights
	}

	out := make(map[string]float64, len(weights))
	for sym, w := range weights {
		out[sym] = w / total
	}
	return out
}

// SortedSymbols returns the weight map's symbols, heaviest first,
// ties broken alphabetically for deterministic output.
func SortedSymbols(weights map[string]float64) []string {
	symbols := make([]string, 0, len(weights))
	for sym := range weights {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool {
		if weights[symbols[i]] != weights[symbols[j]] {
			return weights[symbols[i]] > weights[symbols[j]]
		}
		return symbols[i] < symbols[j]
	})
	return symbols
}
