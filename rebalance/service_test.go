package rebalance

import (
	"context"
	"errors"
	"testing"

	"wealthai-simulator/database"
)

type fakeBrokerage struct {
	open        bool
	clockErr    error
	failSymbols map[string]bool
	orders      []string
	positions   []BrokerPosition
	equity      float64
}

func (f *fakeBrokerage) IsMarketOpen(ctx context.Context) (bool, error) {
	return f.open, f.clockErr
}

func (f *fakeBrokerage) SubmitOrder(ctx context.Context, symbol, side string, notional float64) (string, string, error) {
	if f.failSymbols[symbol] {
		return "", "", errors.New("rejected upstream")
	}
	f.orders = append(f.orders, side+" "+symbol)
	return "order-" + symbol, "accepted", nil
}

func (f *fakeBrokerage) Positions(ctx context.Context) ([]BrokerPosition, error) {
	return f.positions, nil
}

func (f *fakeBrokerage) Equity(ctx context.Context) (float64, error) {
	return f.equity, nil
}

type fakeJournal struct {
	trades    []database.TradeLog
	snapshots []database.PositionSnapshot
	metrics   []database.DailyMetric
}

func (f *fakeJournal) SaveTrades(trades []database.TradeLog) error {
	f.trades = append(f.trades, trades...)
	return nil
}

func (f *fakeJournal) SavePositionSnapshots(snaps []database.PositionSnapshot) error {
	f.snapshots = append(f.snapshots, snaps...)
	return nil
}

func (f *fakeJournal) SaveDailyMetric(m *database.DailyMetric) error {
	f.metrics = append(f.metrics, *m)
	return nil
}

type fakeBench struct{ close float64 }

func (f *fakeBench) LastClose(ctx context.Context, symbol string) (float64, error) {
	return f.close, nil
}

func twoActionPlan() *Plan {
	return &Plan{
		Actions: []Action{
			{Symbol: "SPY", Side: SideBuy, Notional: 500},
			{Symbol: "AAPL", Side: SideBuy, Notional: 300},
		},
	}
}

func testInfo() map[string]SymbolInfo {
	return map[string]SymbolInfo{
		"SPY":  {Price: 500, Class: ClassETF},
		"AAPL": {Price: 200, Class: ClassStock},
	}
}

func TestSubmitMarketClosed(t *testing.T) {
	brk := &fakeBrokerage{open: false}
	journal := &fakeJournal{}
	svc := NewService(testGuardrails(), brk, journal, &fakeBench{}, "SPY")

	_, err := svc.Submit(context.Background(), twoActionPlan(), testInfo())
	if !errors.Is(err, ErrMarketClosed) {
		t.Fatalf("expected ErrMarketClosed, got %v", err)
	}
	if len(brk.orders) != 0 {
		t.Errorf("no orders should reach the brokerage, got %v", brk.orders)
	}
	if len(journal.trades) != 0 {
		t.Errorf("nothing should be journaled, got %d trades", len(journal.trades))
	}
}

func TestSubmitJournalsEverything(t *testing.T) {
	brk := &fakeBrokerage{
		open:   true,
		equity: 99500,
		positions: []BrokerPosition{
			{Symbol: "SPY", Qty: 1, AvgPrice: 500, MarketPrice: 500, MarketValue: 500},
		},
	}
	journal := &fakeJournal{}
	svc := NewService(testGuardrails(), brk, journal, &fakeBench{close: 520}, "SPY")

	result, err := svc.Submit(context.Background(), twoActionPlan(), testInfo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Submitted != 2 || result.Failed != 0 {
		t.Errorf("expected 2 submitted, got %+v", result)
	}
	if len(brk.orders) != 2 {
		t.Errorf("expected 2 orders, got %v", brk.orders)
	}
	if len(journal.trades) != 2 {
		t.Fatalf("expected 2 trade rows, got %d", len(journal.trades))
	}
	for _, row := range journal.trades {
		if row.Status != "submitted" {
			t.Errorf("expected status submitted, got %q", row.Status)
		}
		if row.OrderID == "" {
			t.Error("expected order id on journaled trade")
		}
		if row.Qty <= 0 {
			t.Errorf("expected derived qty, got %.4f", row.Qty)
		}
	}
	if len(journal.snapshots) != 1 || journal.snapshots[0].Ticker != "SPY" {
		t.Errorf("expected one SPY snapshot, got %+v", journal.snapshots)
	}
	if len(journal.metrics) != 1 {
		t.Fatalf("expected one metric row, got %d", len(journal.metrics))
	}
	m := journal.metrics[0]
	if m.Equity != 99500 || m.BenchmarkValue != 520 {
		t.Errorf("unexpected metric row %+v", m)
	}
	if result.Equity != 99500 {
		t.Errorf("expected result equity 99500, got %.2f", result.Equity)
	}
}

func TestSubmitPartialFailure(t *testing.T) {
	brk := &fakeBrokerage{open: true, failSymbols: map[string]bool{"AAPL": true}}
	journal := &fakeJournal{}
	svc := NewService(testGuardrails(), brk, journal, &fakeBench{}, "SPY")

	result, err := svc.Submit(context.Background(), twoActionPlan(), testInfo())
	if err != nil {
		t.Fatalf("partial failure should not error: %v", err)
	}
	if result.Submitted != 1 || result.Failed != 1 {
		t.Errorf("expected 1/1, got %+v", result)
	}

	var failed *database.TradeLog
	for i := range journal.trades {
		if journal.trades[i].Ticker == "AAPL" {
			failed = &journal.trades[i]
		}
	}
	if failed == nil || failed.Status != "failed" || failed.Note == "" {
		t.Errorf("expected a journaled failure for AAPL, got %+v", failed)
	}
}

func TestSubmitAllFailed(t *testing.T) {
	brk := &fakeBrokerage{open: true, failSymbols: map[string]bool{"SPY": true, "AAPL": true}}
	journal := &fakeJournal{}
	svc := NewService(testGuardrails(), brk, journal, &fakeBench{}, "SPY")

	result, err := svc.Submit(context.Background(), twoActionPlan(), testInfo())
	if err == nil {
		t.Fatal("expected an error when every order fails")
	}
	if result == nil || result.Failed != 2 {
		t.Errorf("expected 2 failures in the result, got %+v", result)
	}
}

func TestSubmitEmptyPlan(t *testing.T) {
	brk := &fakeBrokerage{open: false} // would reject if consulted
	journal := &fakeJournal{}
	svc := NewService(testGuardrails(), brk, journal, &fakeBench{}, "SPY")

	result, err := svc.Submit(context.Background(), &Plan{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Submitted != 0 || len(journal.trades) != 0 {
		t.Errorf("empty plan must be a no-op, got %+v", result)
	}
}

func TestSubmitSkipsClockWhenNotRequired(t *testing.T) {
	cfg := testGuardrails()
	cfg.MarketHoursOnly = false
	brk := &fakeBrokerage{open: false, clockErr: errors.New("clock down")}
	journal := &fakeJournal{}
	svc := NewService(cfg, brk, journal, &fakeBench{}, "SPY")

	result, err := svc.Submit(context.Background(), twoActionPlan(), testInfo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Submitted != 2 {
		t.Errorf("expected 2 submitted, got %+v", result)
	}
}
