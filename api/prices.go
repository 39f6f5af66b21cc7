package api

import (
	"context"

	"wealthai-simulator/portfolio"
	"wealthai-simulator/rebalance"
)

// advWindow is how many daily bars feed the average dollar volume estimate
const advWindow = 20

// fetchPrices resolves the latest price for each symbol. Streaming quotes in
// the cache win over REST snapshots because they are fresher.
func (s *Server) fetchPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	prices, err := s.broker.GetSnapshots(ctx, symbols)
	if err != nil {
		return nil, err
	}
	for _, sym := range symbols {
		if q, ok := s.quotes.Latest(ctx, sym); ok && q.Price > 0 {
			prices[sym] = q.Price
		}
	}
	return prices, nil
}

// buildSymbolInfo assembles the reference data the guardrails need. Average
// dollar volume is only computed when the liquidity floor is active, to keep
// the bar fetches off the hot path otherwise.
func (s *Server) buildSymbolInfo(ctx context.Context, symbols []string) (map[string]rebalance.SymbolInfo, error) {
	prices, err := s.fetchPrices(ctx, symbols)
	if err != nil {
		return nil, err
	}

	info := make(map[string]rebalance.SymbolInfo, len(symbols))
	for _, sym := range symbols {
		entry := rebalance.SymbolInfo{
			Price: prices[sym],
			Class: classify(sym),
		}
		if s.cfg.Guardrails.MinADVUSD > 0 {
			entry.ADVUSD = s.avgDollarVolume(ctx, sym)
		}
		info[sym] = entry
	}
	return info, nil
}

// avgDollarVolume estimates liquidity from recent daily bars. Bars come from
// the local store when the refresher has them, the data API otherwise.
func (s *Server) avgDollarVolume(ctx context.Context, symbol string) float64 {
	bars, err := s.repo.GetPriceBars(symbol, advWindow)
	if err == nil && len(bars) > 0 {
		total := 0.0
		for _, b := range bars {
			total += b.Close * b.Volume
		}
		return total / float64(len(bars))
	}

	apiBars, err := s.broker.GetDailyBars(ctx, symbol, advWindow)
	if err != nil || len(apiBars) == 0 {
		return 0
	}
	total := 0.0
	for _, b := range apiBars {
		total += b.Close * b.Volume
	}
	return total / float64(len(apiBars))
}

func classify(symbol string) rebalance.AssetClass {
	switch {
	case portfolio.IsMicroSleeve(symbol):
		return rebalance.ClassMicrocap
	case portfolio.IsETF(symbol):
		return rebalance.ClassETF
	default:
		return rebalance.ClassStock
	}
}
