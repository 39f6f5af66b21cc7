package config

import "testing"

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()

	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if cfg.Broker.Benchmark != "SPY" {
		t.Errorf("Benchmark = %q, want SPY", cfg.Broker.Benchmark)
	}

	g := cfg.Guardrails
	if g.MaxWeightStock != 0.20 {
		t.Errorf("MaxWeightStock = %v, want 0.20", g.MaxWeightStock)
	}
	if g.MaxWeightETF != 1.00 {
		t.Errorf("MaxWeightETF = %v, want 1.00", g.MaxWeightETF)
	}
	if g.MaxWeightMicrocapTotal != 0.10 {
		t.Errorf("MaxWeightMicrocapTotal = %v, want 0.10", g.MaxWeightMicrocapTotal)
	}
	if g.MinPrice != 1.00 {
		t.Errorf("MinPrice = %v, want 1.00", g.MinPrice)
	}
	if g.MinADVUSD != 0 {
		t.Errorf("MinADVUSD = %v, want 0", g.MinADVUSD)
	}
	if g.CashBuffer != 0.05 {
		t.Errorf("CashBuffer = %v, want 0.05", g.CashBuffer)
	}
	if !g.MarketHoursOnly {
		t.Error("MarketHoursOnly should default to true")
	}
	if g.AllowShorts {
		t.Error("AllowShorts should default to false")
	}
	if g.MaxOrderUSD != 10000 {
		t.Errorf("MaxOrderUSD = %v, want 10000", g.MaxOrderUSD)
	}
	if g.MaxPositionUSD != 25000 {
		t.Errorf("MaxPositionUSD = %v, want 25000", g.MaxPositionUSD)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAX_WEIGHT_STOCK", "0.35")
	t.Setenv("MARKET_HOURS_ONLY", "false")
	t.Setenv("ALLOW_SHORTS", "yes")
	t.Setenv("MAX_ORDER_USD", "2500")

	cfg := LoadFromEnv()

	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
	}
	if cfg.Guardrails.MaxWeightStock != 0.35 {
		t.Errorf("MaxWeightStock = %v, want 0.35", cfg.Guardrails.MaxWeightStock)
	}
	if cfg.Guardrails.MarketHoursOnly {
		t.Error("MARKET_HOURS_ONLY=false should disable the market hours check")
	}
	if !cfg.Guardrails.AllowShorts {
		t.Error("ALLOW_SHORTS=yes should enable shorts")
	}
	if cfg.Guardrails.MaxOrderUSD != 2500 {
		t.Errorf("MaxOrderUSD = %v, want 2500", cfg.Guardrails.MaxOrderUSD)
	}
}

func TestLoadFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	t.Setenv("CASH_BUFFER", "lots")

	cfg := LoadFromEnv()

	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want default 8080", cfg.ServerPort)
	}
	if cfg.Guardrails.CashBuffer != 0.05 {
		t.Errorf("CashBuffer = %v, want default 0.05", cfg.Guardrails.CashBuffer)
	}
}
