package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"wealthai-simulator/rebalance"
)

// rebalanceRequest optionally overrides the stored budget and target. An
// empty target falls back to the stored holdings weights.
type rebalanceRequest struct {
	Budget float64            `json:"budget"`
	Target map[string]float64 `json:"target"`
}

// handleRebalance evaluates the guardrail-clamped trade plan and, when
// ?submit=true, places the surviving orders. Previews touch neither the
// brokerage nor the journal.
func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	var req rebalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	budget := req.Budget
	if budget <= 0 {
		pref, err := s.repo.LatestUserPref()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load preferences", err)
			return
		}
		if pref != nil {
			budget = pref.Budget
		}
	}

	target := req.Target
	if len(target) == 0 {
		holdings, err := s.repo.GetHoldings()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch holdings", err)
			return
		}
		target = make(map[string]float64, len(holdings))
		for _, h := range holdings {
			target[h.Symbol] = h.Weight
		}
	}
	normalized := make(map[string]float64, len(target))
	for sym, weight := range target {
		normalized[strings.ToUpper(strings.TrimSpace(sym))] = weight
	}
	target = normalized

	current, symbols, err := s.currentPositions(r, target)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to fetch positions", err)
		return
	}

	info, err := s.buildSymbolInfo(r.Context(), symbols)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to fetch reference prices", err)
		return
	}

	plan, err := s.evaluator.Evaluate(target, current, info, budget)
	if err != nil {
		if rebalance.IsValidationError(err) {
			respondWithError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Evaluation failed", err)
		return
	}

	if !getBoolParam(r, "submit", false) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"plan":      plan,
			"submitted": false,
		})
		return
	}

	if s.trader == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Order submission is not configured", nil)
		return
	}

	result, err := s.trader.Submit(r.Context(), plan, info)
	if err != nil {
		if errors.Is(err, rebalance.ErrMarketClosed) {
			respondWithError(w, http.StatusConflict, "Market is closed", nil)
			return
		}
		respondWithError(w, http.StatusBadGateway, "Order submission failed", err)
		return
	}

	s.sse.Broadcast("rebalance", map[string]interface{}{
		"submitted": result.Submitted,
		"failed":    result.Failed,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"plan":      plan,
		"submitted": true,
		"result":    result,
	})
}

// currentPositions maps the live brokerage positions into evaluator inputs
// and returns the symbol union of target and held names.
func (s *Server) currentPositions(r *http.Request, target map[string]float64) (map[string]rebalance.Position, []string, error) {
	positions, err := s.broker.GetPositions(r.Context())
	if err != nil {
		return nil, nil, err
	}

	current := make(map[string]rebalance.Position, len(positions))
	seen := make(map[string]bool, len(target)+len(positions))
	symbols := make([]string, 0, len(target)+len(positions))

	for _, p := range positions {
		sym := strings.ToUpper(p.Symbol)
		current[sym] = rebalance.Position{
			Qty:         p.Qty,
			Price:       p.CurrentPrice,
			MarketValue: p.MarketValue,
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}
	for sym := range target {
		if !seen[sym] {
			symbols = append(symbols, sym)
		}
	}
	return current, symbols, nil
}
