package rebalance

import (
	"errors"
	"math"
	"testing"

	"wealthai-simulator/config"
)

func testGuardrails() config.GuardrailConfig {
	return config.GuardrailConfig{
		MaxWeightStock:         0.20,
		MaxWeightETF:           1.00,
		MaxWeightMicrocapTotal: 0.10,
		MinPrice:               1.00,
		MinADVUSD:              0,
		CashBuffer:             0.05,
		MarketHoursOnly:        true,
		AllowShorts:            false,
		MaxOrderUSD:            10000,
		MaxPositionUSD:         25000,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestEvaluateSingleETFTarget(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	plan, err := e.Evaluate(
		map[string]float64{"SPY": 1.0},
		map[string]Position{},
		map[string]SymbolInfo{"SPY": {Price: 520, Class: ClassETF, ADVUSD: 1e9}},
		1000,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(plan.Actions))
	}
	a := plan.Actions[0]
	if a.Symbol != "SPY" || a.Side != SideBuy {
		t.Errorf("expected BUY SPY, got %s %s", a.Side, a.Symbol)
	}
	// Budget minus the 5% cash buffer
	if !almostEqual(a.Notional, 950) {
		t.Errorf("expected notional 950, got %.2f", a.Notional)
	}
	if a.Clamped {
		t.Errorf("expected unclamped action, got clamp reason %q", a.Reason)
	}
	if !almostEqual(plan.CashReserved, 50) {
		t.Errorf("expected 50 cash reserved, got %.2f", plan.CashReserved)
	}
}

func TestEvaluateValidation(t *testing.T) {
	e := NewEvaluator(testGuardrails())
	info := map[string]SymbolInfo{"SPY": {Price: 500, Class: ClassETF}}

	tests := []struct {
		name    string
		target  map[string]float64
		budget  float64
		wantErr error
	}{
		{"zero budget", map[string]float64{"SPY": 1.0}, 0, ErrInvalidBudget},
		{"negative budget", map[string]float64{"SPY": 1.0}, -100, ErrInvalidBudget},
		{"empty target", map[string]float64{}, 1000, ErrNoAllocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(tt.target, nil, info, tt.budget)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEvaluateBuysNeverExceedInvestable(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	target := map[string]float64{
		"AAPL": 0.17, "MSFT": 0.17, "NVDA": 0.17,
		"AMD": 0.17, "TSLA": 0.16, "META": 0.16,
	}
	info := map[string]SymbolInfo{}
	for sym := range target {
		info[sym] = SymbolInfo{Price: 100, Class: ClassStock, ADVUSD: 1e8}
	}

	budget := 10000.0
	plan, err := e.Evaluate(target, nil, info, budget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0.0
	for _, a := range plan.Actions {
		if a.Side != SideBuy {
			t.Fatalf("unexpected %s for %s", a.Side, a.Symbol)
		}
		total += a.Notional
	}
	investable := budget * 0.95
	if total > investable+0.01 {
		t.Errorf("buys total %.2f exceeds investable %.2f", total, investable)
	}
}

func TestEvaluateOrderSizeCap(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	plan, err := e.Evaluate(
		map[string]float64{"AAPL": 0.20},
		nil,
		map[string]SymbolInfo{"AAPL": {Price: 200, Class: ClassStock}},
		100000,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(plan.Actions))
	}
	a := plan.Actions[0]
	// Desired 19000 clamps to the 10000 per-order cap
	if !almostEqual(a.Notional, 10000) {
		t.Errorf("expected notional 10000, got %.2f", a.Notional)
	}
	if !a.Clamped || a.Reason != "order size cap" {
		t.Errorf("expected order size cap clamp, got clamped=%v reason=%q", a.Clamped, a.Reason)
	}
}

func TestEvaluatePositionSizeCap(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	plan, err := e.Evaluate(
		map[string]float64{"AAPL": 0.20},
		map[string]Position{"AAPL": {Qty: 100, Price: 200, MarketValue: 20000}},
		map[string]SymbolInfo{"AAPL": {Price: 200, Class: ClassStock}},
		200000,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(plan.Actions))
	}
	a := plan.Actions[0]
	// Desired add is 18000 but only 5000 of headroom remains under the
	// 25000 position cap
	if !almostEqual(a.Notional, 5000) {
		t.Errorf("expected notional 5000, got %.2f", a.Notional)
	}
	if a.Reason != "position at size cap" {
		t.Errorf("expected position size clamp, got %q", a.Reason)
	}
}

func TestEvaluateSellClampedToHeldValue(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	// Target weight zero liquidates the position, never more
	plan, err := e.Evaluate(
		map[string]float64{"SPY": 1.0, "AAPL": 0},
		map[string]Position{"AAPL": {Qty: 2, Price: 200, MarketValue: 400}},
		map[string]SymbolInfo{
			"SPY":  {Price: 520, Class: ClassETF},
			"AAPL": {Price: 200, Class: ClassStock},
		},
		1000,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sell *Action
	for i := range plan.Actions {
		if plan.Actions[i].Side == SideSell {
			sell = &plan.Actions[i]
		}
	}
	if sell == nil {
		t.Fatal("expected a SELL action")
	}
	if sell.Symbol != "AAPL" || !almostEqual(sell.Notional, 400) {
		t.Errorf("expected SELL AAPL 400, got %s %.2f", sell.Symbol, sell.Notional)
	}
}

func TestEvaluateShortSaleDropped(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	plan, err := e.Evaluate(
		map[string]float64{"TSLA": -0.10, "SPY": 1.0},
		nil,
		map[string]SymbolInfo{
			"TSLA": {Price: 300, Class: ClassStock},
			"SPY":  {Price: 520, Class: ClassETF},
		},
		1000,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !hasDrop(plan, "TSLA", "short sale not allowed") {
		t.Errorf("expected TSLA dropped for short sale, got %+v", plan.Dropped)
	}
	for _, a := range plan.Actions {
		if a.Symbol == "TSLA" {
			t.Errorf("TSLA should not survive: %+v", a)
		}
	}
}

func TestEvaluatePriceAndLiquidityFloors(t *testing.T) {
	cfg := testGuardrails()
	cfg.MinADVUSD = 1_000_000
	e := NewEvaluator(cfg)

	plan, err := e.Evaluate(
		map[string]float64{"PENNY": 0.10, "THIN": 0.10, "GHOST": 0.10, "SPY": 0.70},
		nil,
		map[string]SymbolInfo{
			"PENNY": {Price: 0.50, Class: ClassStock, ADVUSD: 5e6},
			"THIN":  {Price: 20, Class: ClassStock, ADVUSD: 200_000},
			"SPY":   {Price: 520, Class: ClassETF, ADVUSD: 1e9},
			// GHOST has no reference data at all
		},
		10000,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !hasDrop(plan, "PENNY", "price below minimum") {
		t.Errorf("expected PENNY dropped on price, got %+v", plan.Dropped)
	}
	if !hasDrop(plan, "THIN", "below liquidity floor") {
		t.Errorf("expected THIN dropped on liquidity, got %+v", plan.Dropped)
	}
	if !hasDrop(plan, "GHOST", "no reference price") {
		t.Errorf("expected GHOST dropped without a price, got %+v", plan.Dropped)
	}
	if len(plan.Actions) != 1 || plan.Actions[0].Symbol != "SPY" {
		t.Errorf("expected only SPY to survive, got %+v", plan.Actions)
	}
}

func TestEvaluateMicrocapAggregateCap(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	plan, err := e.Evaluate(
		map[string]float64{"SOXL": 0.08, "TQQQ": 0.08, "SPY": 0.84},
		nil,
		map[string]SymbolInfo{
			"SOXL": {Price: 30, Class: ClassMicrocap},
			"TQQQ": {Price: 60, Class: ClassMicrocap},
			"SPY":  {Price: 520, Class: ClassETF},
		},
		10000,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	microTotal := 0.0
	for _, a := range plan.Actions {
		if a.Symbol == "SOXL" || a.Symbol == "TQQQ" {
			microTotal += a.Notional
		}
	}
	// 10% of the 9500 investable
	if microTotal > 950+0.01 {
		t.Errorf("micro-cap total %.2f exceeds cap 950", microTotal)
	}

	clamped := false
	for _, a := range plan.Actions {
		if a.Reason == "micro-cap budget exhausted" {
			clamped = true
		}
	}
	if !clamped {
		t.Error("expected one micro-cap buy clamped by the aggregate cap")
	}
}

func TestEvaluateDeterministicOrdering(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	target := map[string]float64{"AAA": 0, "BBB": 0.5, "CCC": 0.25, "DDD": 0.25}
	current := map[string]Position{"AAA": {Qty: 10, Price: 100, MarketValue: 1000}}
	info := map[string]SymbolInfo{
		"AAA": {Price: 100, Class: ClassETF},
		"BBB": {Price: 50, Class: ClassETF},
		"CCC": {Price: 50, Class: ClassETF},
		"DDD": {Price: 50, Class: ClassETF},
	}

	want := []string{"AAA", "BBB", "CCC", "DDD"}
	for i := 0; i < 5; i++ {
		plan, err := e.Evaluate(target, current, info, 1000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(plan.Actions) != len(want) {
			t.Fatalf("expected %d actions, got %+v", len(want), plan.Actions)
		}
		for j, a := range plan.Actions {
			if a.Symbol != want[j] {
				t.Fatalf("run %d: expected order %v, got %s at %d", i, want, a.Symbol, j)
			}
		}
		if plan.Actions[0].Side != SideSell {
			t.Fatal("expected the SELL to come first")
		}
	}
}

func TestEvaluateAllDroppedIsEmptyPlan(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	plan, err := e.Evaluate(
		map[string]float64{"PENNY": 1.0},
		nil,
		map[string]SymbolInfo{"PENNY": {Price: 0.20, Class: ClassStock}},
		1000,
	)
	if err != nil {
		t.Fatalf("expected empty plan, got error %v", err)
	}
	if len(plan.Actions) != 0 {
		t.Errorf("expected no actions, got %+v", plan.Actions)
	}
	if len(plan.Dropped) != 1 {
		t.Errorf("expected 1 dropped entry, got %+v", plan.Dropped)
	}
}

func TestEvaluateStockWeightCap(t *testing.T) {
	e := NewEvaluator(testGuardrails())

	plan, err := e.Evaluate(
		map[string]float64{"AAPL": 0.50, "SPY": 0.50},
		nil,
		map[string]SymbolInfo{
			"AAPL": {Price: 200, Class: ClassStock},
			"SPY":  {Price: 520, Class: ClassETF},
		},
		10000,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, a := range plan.Actions {
		if a.Symbol != "AAPL" {
			continue
		}
		// Single stocks cap at 20% of the 9500 investable
		if !almostEqual(a.Notional, 1900) {
			t.Errorf("expected AAPL clamped to 1900, got %.2f", a.Notional)
		}
		if a.Reason != "position at weight cap" {
			t.Errorf("expected weight cap clamp, got %q", a.Reason)
		}
	}
}

func hasDrop(plan *Plan, symbol, reason string) bool {
	for _, d := range plan.Dropped {
		if d.Symbol == symbol && d.Reason == reason {
			return true
		}
	}
	return false
}
