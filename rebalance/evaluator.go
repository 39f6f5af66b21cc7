// Package rebalance computes the trade actions that move a portfolio from
// its current positions toward a target allocation, filtered and clamped by
// the configured guardrails. Evaluation is a pure function of its inputs;
// submission is a separate, explicit side-effecting step in Service.
package rebalance

import (
	"errors"
	"math"
	"sort"

	"wealthai-simulator/config"
)

// Side is the direction of an action
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// AssetClass selects which per-name weight cap applies; micro-caps
// additionally share an aggregate cap.
type AssetClass string

const (
	ClassStock    AssetClass = "stock"
	ClassETF      AssetClass = "etf"
	ClassMicrocap AssetClass = "microcap"
)

// minNotional is the floor below which a clamped action is dropped as noise
const minNotional = 1.0

// Position is the current state of one holding
type Position struct {
	Qty         float64 `json:"qty"`
	Price       float64 `json:"price"`
	MarketValue float64 `json:"market_value"`
}

// SymbolInfo is the reference data the guardrails need per symbol
type SymbolInfo struct {
	Price  float64    `json:"price"`
	ADVUSD float64    `json:"adv_usd"` // average daily dollar volume
	Class  AssetClass `json:"class"`
}

// Action is one surviving BUY or SELL sized in USD notional
type Action struct {
	Symbol       string  `json:"symbol"`
	Side         Side    `json:"side"`
	Notional     float64 `json:"notional"`
	TargetWeight float64 `json:"target_weight"`
	Clamped      bool    `json:"clamped"`
	Reason       string  `json:"reason,omitempty"` // set when clamped
}

// Dropped is an action rejected outright by a guardrail
type Dropped struct {
	Symbol   string  `json:"symbol"`
	Side     Side    `json:"side"`
	Notional float64 `json:"notional"` // requested, pre-clamp
	Reason   string  `json:"reason"`
}

// Plan is the evaluation result. An all-dropped evaluation is a valid plan
// with an empty action list, not an error.
type Plan struct {
	Actions      []Action  `json:"actions"`
	Dropped      []Dropped `json:"dropped,omitempty"`
	Budget       float64   `json:"budget"`
	Investable   float64   `json:"investable"`
	CashReserved float64   `json:"cash_reserved"`
}

// Validation and submission errors surfaced to the caller
var (
	ErrInvalidBudget = errors.New("budget must be positive")
	ErrNoAllocation  = errors.New("no target allocation available")
	ErrMarketClosed  = errors.New("market is closed")
)

// Evaluator applies the guardrail configuration to rebalance requests.
// It holds no mutable state; one evaluator can serve all requests.
type Evaluator struct {
	cfg config.GuardrailConfig
}

// NewEvaluator creates an evaluator with the given guardrails
func NewEvaluator(cfg config.GuardrailConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// candidate is one pre-guardrail delta between target and current state
type candidate struct {
	symbol  string
	side    Side
	desired float64 // requested notional, always positive
	weight  float64 // target weight
	deficit float64 // |delta| as a fraction of investable, for ordering
}

// Evaluate computes the clamped action list for a target allocation.
//
// Actions are processed SELLs first, then by largest weight deficit, ties
// broken by symbol; that ordering decides which BUYs win when the investable
// budget runs out, and it is deterministic across runs.
func (e *Evaluator) Evaluate(target map[string]float64, current map[string]Position, info map[string]SymbolInfo, budget float64) (*Plan, error) {
	if budget <= 0 {
		return nil, ErrInvalidBudget
	}
	if len(target) == 0 {
		return nil, ErrNoAllocation
	}

	investable := budget * (1 - e.cfg.CashBuffer)
	plan := &Plan{
		Actions:      make([]Action, 0, len(target)),
		Budget:       budget,
		Investable:   investable,
		CashReserved: budget - investable,
	}

	candidates := e.collect(target, current, investable)

	// Micro-cap exposure starts from what is already held
	microExposure := 0.0
	for sym, pos := range current {
		if info[sym].Class == ClassMicrocap {
			microExposure += pos.MarketValue
		}
	}

	buySpent := 0.0
	for _, c := range candidates {
		pos := current[c.symbol]
		inf, hasInfo := info[c.symbol]

		price := inf.Price
		if price <= 0 && c.side == SideSell {
			// An existing position can always be marked at its own price
			price = pos.Price
		}
		if price <= 0 {
			plan.drop(c, "no reference price")
			continue
		}
		if price < e.cfg.MinPrice {
			plan.drop(c, "price below minimum")
			continue
		}
		if e.cfg.MinADVUSD > 0 && hasInfo && inf.ADVUSD < e.cfg.MinADVUSD {
			plan.drop(c, "below liquidity floor")
			continue
		}

		notional := c.desired
		clamped := false
		reason := ""

		clamp := func(limit float64, why string) bool {
			if limit <= 0 {
				plan.drop(c, why)
				return false
			}
			if notional > limit {
				notional = limit
				clamped = true
				reason = why
			}
			return true
		}

		if c.side == SideSell {
			if !e.cfg.AllowShorts {
				if !clamp(pos.MarketValue, "short sale not allowed") {
					continue
				}
			}
		} else {
			classCap := e.cfg.MaxWeightStock
			if inf.Class == ClassETF {
				classCap = e.cfg.MaxWeightETF
			}
			if !clamp(classCap*investable-pos.MarketValue, "position at weight cap") {
				continue
			}
			if inf.Class == ClassMicrocap {
				if !clamp(e.cfg.MaxWeightMicrocapTotal*investable-microExposure, "micro-cap budget exhausted") {
					continue
				}
			}
			if !clamp(e.cfg.MaxPositionUSD-pos.MarketValue, "position at size cap") {
				continue
			}
			if !clamp(investable-buySpent, "cash buffer exhausted") {
				continue
			}
		}

		if notional > e.cfg.MaxOrderUSD {
			notional = e.cfg.MaxOrderUSD
			clamped = true
			reason = "order size cap"
		}

		if notional < minNotional {
			plan.drop(c, "below minimum notional")
			continue
		}

		if c.side == SideBuy {
			buySpent += notional
			if inf.Class == ClassMicrocap {
				microExposure += notional
			}
		} else if inf.Class == ClassMicrocap {
			microExposure -= notional
		}

		plan.Actions = append(plan.Actions, Action{
			Symbol:       c.symbol,
			Side:         c.side,
			Notional:     round2(notional),
			TargetWeight: c.weight,
			Clamped:      clamped,
			Reason:       reason,
		})
	}

	return plan, nil
}

// collect turns the target/current pair into ordered candidates
func (e *Evaluator) collect(target map[string]float64, current map[string]Position, investable float64) []candidate {
	symbols := make(map[string]bool, len(target)+len(current))
	for sym := range target {
		symbols[sym] = true
	}
	for sym := range current {
		symbols[sym] = true
	}

	candidates := make([]candidate, 0, len(symbols))
	for sym := range symbols {
		delta := investable*target[sym] - current[sym].MarketValue
		if math.Abs(delta) < minNotional {
			continue
		}

		side := SideBuy
		if delta < 0 {
			side = SideSell
		}
		candidates = append(candidates, candidate{
			symbol:  sym,
			side:    side,
			desired: math.Abs(delta),
			weight:  target[sym],
			deficit: math.Abs(delta) / investable,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.side != b.side {
			return a.side == SideSell
		}
		if a.deficit != b.deficit {
			return a.deficit > b.deficit
		}
		return a.symbol < b.symbol
	})
	return candidates
}

func (p *Plan) drop(c candidate, reason string) {
	p.Dropped = append(p.Dropped, Dropped{
		Symbol:   c.symbol,
		Side:     c.side,
		Notional: round2(c.desired),
		Reason:   reason,
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
