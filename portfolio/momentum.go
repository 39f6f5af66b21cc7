package portfolio

import "sort"

const (
	smaShortWindow = 50
	smaLongWindow  = 200
	topN           = 5
)

// Scored is one candidate ranked by the momentum builder
type Scored struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Momentum float64 `json:"momentum"`
	Pattern  string  `json:"pattern"`
	Score    float64 `json:"score"`
}

// ScoreCloses computes momentum and the SMA crossover label from a close
// series, oldest first. Returns false when the series is too short to score.
func ScoreCloses(symbol string, closes []float64) (Scored, bool) {
	if len(closes) < 2 || closes[0] == 0 {
		return Scored{}, false
	}

	price := closes[len(closes)-1]
	momentum := price/closes[0] - 1

	pattern := "Normal"
	if len(closes) >= smaLongWindow {
		sma50 := sma(closes, smaShortWindow)
		sma200 := sma(closes, smaLongWindow)
		if sma50 > sma200 {
			pattern = "Golden Cross"
		}
	}

	return Scored{
		Symbol:   symbol,
		Price:    price,
		Momentum: momentum,
		Pattern:  pattern,
		Score:    momentum,
	}, true
}

// TopMomentum keeps the best-scoring candidates and assigns them equal
// weights. Ties are broken alphabetically so reruns over the same data are
// stable.
func TopMomentum(candidates []Scored) []Scored {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// EqualWeights returns a weight map assigning each scored symbol 1/n
func EqualWeights(scored []Scored) map[string]float64 {
	if len(scored) == 0 {
		return map[string]float64{}
	}
	w := 1.0 / float64(len(scored))
	out := make(map[string]float64, len(scored))
	for _, s := range scored {
		out[s.Symbol] = w
	}
	return out
}

// sma is the mean of the trailing window of closes
func sma(closes []float64, window int) float64 {
	if window <= 0 || len(closes) < window {
		return 0
	}
	var sum float64
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window)
}
