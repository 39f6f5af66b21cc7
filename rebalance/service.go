package rebalance

import (
	"context"
	"errors"
	"fmt"
	"log"

	"wealthai-simulator/config"
	"wealthai-simulator/database"
)

// Brokerage is the slice of the paper-trading API the service needs.
// The production implementation lives in the broker package; tests use fakes.
type Brokerage interface {
	IsMarketOpen(ctx context.Context) (bool, error)
	SubmitOrder(ctx context.Context, symbol, side string, notional float64) (orderID, status string, err error)
	Positions(ctx context.Context) ([]BrokerPosition, error)
	Equity(ctx context.Context) (float64, error)
}

// BrokerPosition is one open position as reported by the brokerage
type BrokerPosition struct {
	Symbol      string
	Qty         float64
	AvgPrice    float64
	MarketPrice float64
	MarketValue float64
}

// Journal persists the audit trail of a submission run
type Journal interface {
	SaveTrades(trades []database.TradeLog) error
	SavePositionSnapshots(snapshots []database.PositionSnapshot) error
	SaveDailyMetric(metric *database.DailyMetric) error
}

// BenchmarkSource reports the latest close for the benchmark symbol
type BenchmarkSource interface {
	LastClose(ctx context.Context, symbol string) (float64, error)
}

// SubmitResult summarizes one submission run
type SubmitResult struct {
	Submitted int                 `json:"submitted"`
	Failed    int                 `json:"failed"`
	Trades    []database.TradeLog `json:"trades"`
	Equity    float64             `json:"equity"`
}

// Service turns an evaluated plan into live paper orders and journals the
// outcome. Previews never reach this type; the handler only calls Submit
// when the caller asked for it.
type Service struct {
	cfg       config.GuardrailConfig
	broker    Brokerage
	journal   Journal
	bench     BenchmarkSource
	benchmark string
}

// NewService wires the submission dependencies together
func NewService(cfg config.GuardrailConfig, broker Brokerage, journal Journal, bench BenchmarkSource, benchmark string) *Service {
	return &Service{
		cfg:       cfg,
		broker:    broker,
		journal:   journal,
		bench:     bench,
		benchmark: benchmark,
	}
}

// Submit places every action in the plan as a notional market order.
//
// When MARKET_HOURS_ONLY is set and the market is closed, nothing is
// submitted and ErrMarketClosed is returned. Individual order failures are
// journaled with status "failed" and do not stop the remaining actions; the
// run only returns an error when every order failed.
func (s *Service) Submit(ctx context.Context, plan *Plan, info map[string]SymbolInfo) (*SubmitResult, error) {
	if plan == nil || len(plan.Actions) == 0 {
		return &SubmitResult{}, nil
	}

	if s.cfg.MarketHoursOnly {
		open, err := s.broker.IsMarketOpen(ctx)
		if err != nil {
			return nil, fmt.Errorf("market clock: %w", err)
		}
		if !open {
			return nil, ErrMarketClosed
		}
	}

	result := &SubmitResult{Trades: make([]database.TradeLog, 0, len(plan.Actions))}
	var lastErr error

	for _, action := range plan.Actions {
		row := database.TradeLog{
			Ticker:   action.Symbol,
			Side:     string(action.Side),
			Notional: action.Notional,
		}
		if inf, ok := info[action.Symbol]; ok && inf.Price > 0 {
			row.Price = inf.Price
			row.Qty = action.Notional / inf.Price
		}

		orderID, status, err := s.broker.SubmitOrder(ctx, action.Symbol, string(action.Side), action.Notional)
		if err != nil {
			log.Printf("⚠️ Order %s %s $%.2f failed: %v", action.Side, action.Symbol, action.Notional, err)
			row.Status = "failed"
			row.Note = err.Error()
			result.Failed++
			lastErr = err
		} else {
			row.Status = "submitted"
			row.OrderID = orderID
			row.Note = status
			result.Submitted++
		}
		result.Trades = append(result.Trades, row)
	}

	if err := s.journal.SaveTrades(result.Trades); err != nil {
		log.Printf("⚠️ Failed to journal trades: %v", err)
	}

	s.recordSnapshot(ctx, result)

	if result.Submitted == 0 && lastErr != nil {
		return result, fmt.Errorf("all orders failed: %w", lastErr)
	}
	return result, nil
}

// recordSnapshot captures post-submission positions and a daily metric row.
// Failures here are logged, not surfaced; the orders already went out.
func (s *Service) recordSnapshot(ctx context.Context, result *SubmitResult) {
	positions, err := s.broker.Positions(ctx)
	if err != nil {
		log.Printf("⚠️ Failed to fetch positions after submit: %v", err)
	} else if len(positions) > 0 {
		snapshots := make([]database.PositionSnapshot, 0, len(positions))
		for _, p := range positions {
			snapshots = append(snapshots, database.PositionSnapshot{
				Ticker:      p.Symbol,
				Qty:         p.Qty,
				AvgPrice:    p.AvgPrice,
				MarketPrice: p.MarketPrice,
				MarketValue: p.MarketValue,
			})
		}
		if err := s.journal.SavePositionSnapshots(snapshots); err != nil {
			log.Printf("⚠️ Failed to save position snapshots: %v", err)
		}
	}

	equity, err := s.broker.Equity(ctx)
	if err != nil {
		log.Printf("⚠️ Failed to fetch equity after submit: %v", err)
		return
	}
	result.Equity = equity

	metric := database.DailyMetric{Equity: equity, Note: "rebalance submit"}
	if s.bench != nil && s.benchmark != "" {
		if price, err := s.bench.LastClose(ctx, s.benchmark); err == nil {
			metric.BenchmarkValue = price
		}
	}
	if err := s.journal.SaveDailyMetric(&metric); err != nil {
		log.Printf("⚠️ Failed to save daily metric: %v", err)
	}
}

// IsValidationError reports whether err should map to a client error rather
// than an upstream failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidBudget) || errors.Is(err, ErrNoAllocation)
}
