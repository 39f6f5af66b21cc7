package app

import (
	"context"
	"fmt"

	"wealthai-simulator/broker"
	"wealthai-simulator/rebalance"
)

// paperGateway adapts the brokerage REST client to the narrow interface the
// rebalance service consumes.
type paperGateway struct {
	client *broker.Client
}

func (g *paperGateway) IsMarketOpen(ctx context.Context) (bool, error) {
	return g.client.IsMarketOpen(ctx)
}

func (g *paperGateway) SubmitOrder(ctx context.Context, symbol, side string, notional float64) (string, string, error) {
	order, err := g.client.SubmitOrder(ctx, symbol, side, notional)
	if err != nil {
		return "", "", err
	}
	return order.ID, order.Status, nil
}

func (g *paperGateway) Positions(ctx context.Context) ([]rebalance.BrokerPosition, error) {
	positions, err := g.client.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]rebalance.BrokerPosition, 0, len(positions))
	for _, p := range positions {
		out = append(out, rebalance.BrokerPosition{
			Symbol:      p.Symbol,
			Qty:         p.Qty,
			AvgPrice:    p.AvgEntryPrice,
			MarketPrice: p.CurrentPrice,
			MarketValue: p.MarketValue,
		})
	}
	return out, nil
}

func (g *paperGateway) Equity(ctx context.Context) (float64, error) {
	account, err := g.client.GetAccount(ctx)
	if err != nil {
		return 0, err
	}
	return account.Equity, nil
}

// barBenchmark reads the benchmark's latest close off the daily bars API
type barBenchmark struct {
	client *broker.Client
}

func (b *barBenchmark) LastClose(ctx context.Context, symbol string) (float64, error) {
	bars, err := b.client.GetDailyBars(ctx, symbol, 5)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("no bars for %s", symbol)
	}
	return bars[len(bars)-1].Close, nil
}
