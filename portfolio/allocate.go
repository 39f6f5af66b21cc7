package portfolio

import (
	"math"
	"time"
)

// Allocation is one sized position produced by the share allocator
type Allocation struct {
	Symbol    string    `json:"symbol"`
	Shares    float64   `json:"shares"`
	Price     float64   `json:"price"`
	Weight    float64   `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
}

// sweepOrder lists the ETFs eligible to absorb leftover cash, tried in order
var sweepOrder = []string{"SPY", "QQQ", "VTI", "VOO"}

// AllocateShares spreads a budget across target weights in whole shares.
// Heavier weights are sized first so they get the rounding headroom; symbols
// without a price, or too expensive for their slice, are skipped. Leftover
// cash large enough for at least one share is swept into the first affordable
// sweep ETF.
func AllocateShares(budget float64, weights map[string]float64, prices map[string]float64) []Allocation {
	now := time.Now().UTC()
	result := make([]Allocation, 0, len(weights))
	cashLeft := budget

	for _, sym := range SortedSymbols(weights) {
		price := prices[sym]
		if price <= 0 {
			continue
		}
		targetAmount := budget * weights[sym]
		shares := math.Floor(targetAmount / price)
		if shares <= 0 {
			continue
		}
		amount := shares * price
		cashLeft -= amount
		result = append(result, Allocation{
			Symbol:    sym,
			Shares:    shares,
			Price:     math.Round(price*10000) / 10000,
			Weight:    weights[sym],
			Timestamp: now,
		})
	}

	if cashLeft > 0 {
		for _, pick := range sweepOrder {
			price := prices[pick]
			if price <= 0 || cashLeft < price {
				continue
			}
			extra := math.Floor(cashLeft / price)
			if extra > 0 {
				result = append(result, Allocation{
					Symbol:    pick,
					Shares:    extra,
					Price:     math.Round(price*10000) / 10000,
					Timestamp: now,
				})
				cashLeft -= extra * price
			}
			break
		}
	}

	return result
}
