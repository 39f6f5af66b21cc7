package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"wealthai-simulator/database"
	"wealthai-simulator/portfolio"
)

// onboardRequest captures the user's preferences for the starter portfolio
type onboardRequest struct {
	Budget        float64 `json:"budget"`
	Goal          string  `json:"goal"`
	Risk          string  `json:"risk"`
	HorizonMonths int     `json:"horizon_months"`
	MicroCaps     bool    `json:"micro_caps"`
}

var validRisks = map[string]bool{"low": true, "medium": true, "high": true}

// handleOnboard saves the user's preferences and builds the risk-matched
// starter portfolio in whole shares.
func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Budget <= 0 {
		respondWithError(w, http.StatusBadRequest, "budget must be positive", nil)
		return
	}
	if !validRisks[req.Risk] {
		respondWithError(w, http.StatusBadRequest, "risk must be low, medium or high", nil)
		return
	}
	if req.Goal == "" {
		req.Goal = "growth"
	}
	if req.HorizonMonths <= 0 {
		req.HorizonMonths = 12
	}

	pref := &database.UserPref{
		Budget:        req.Budget,
		Goal:          req.Goal,
		Risk:          req.Risk,
		HorizonMonths: req.HorizonMonths,
		MicroCaps:     req.MicroCaps,
	}
	if err := s.repo.SaveUserPref(pref); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save preferences", err)
		return
	}

	weights := portfolio.TemplateByRisk(req.Risk, req.MicroCaps)
	allocations, err := s.allocateAndStore(r, req.Budget, weights, nil)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to price the portfolio", err)
		return
	}

	s.sse.Broadcast("portfolio", map[string]interface{}{
		"event": "onboarded",
		"risk":  req.Risk,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"preferences": pref,
		"weights":     weights,
		"allocations": allocations,
	})
}

// allocateAndStore prices the weights, sizes whole shares and replaces the
// stored holdings. Momentum scores are carried through when provided.
func (s *Server) allocateAndStore(r *http.Request, budget float64, weights map[string]float64, scored map[string]portfolio.Scored) ([]portfolio.Allocation, error) {
	symbols := portfolio.SortedSymbols(weights)
	prices, err := s.fetchPrices(r.Context(), symbols)
	if err != nil {
		return nil, err
	}

	allocations := portfolio.AllocateShares(budget, weights, prices)

	holdings := make([]database.PortfolioHolding, 0, len(allocations))
	for _, a := range allocations {
		h := database.PortfolioHolding{
			Symbol:    a.Symbol,
			Weight:    a.Weight,
			Qty:       a.Shares,
			LastPrice: a.Price,
		}
		if sc, ok := scored[a.Symbol]; ok {
			h.Momentum = sc.Momentum
			h.Pattern = sc.Pattern
		}
		holdings = append(holdings, h)
	}
	if err := s.repo.ReplaceHoldings(holdings); err != nil {
		return nil, fmt.Errorf("replace holdings: %w", err)
	}
	return allocations, nil
}

// handleGetHoldings returns the stored model portfolio
func (s *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.repo.GetHoldings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch holdings", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

// handleGetPositions returns the live brokerage positions
func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.broker.GetPositions(r.Context())
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to fetch positions", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
	})
}

// handleBuildPortfolio rebuilds the holdings using the requested strategy:
// the risk template from the stored preferences (default) or the momentum
// screen.
func (s *Server) handleBuildPortfolio(w http.ResponseWriter, r *http.Request) {
	switch strategy := strings.ToLower(r.URL.Query().Get("strategy")); strategy {
	case "", "template":
		s.buildTemplate(w, r)
	case "momentum":
		s.buildMomentum(w, r)
	default:
		respondWithError(w, http.StatusBadRequest, "strategy must be template or momentum", nil)
	}
}

// buildTemplate re-applies the risk template from the latest preferences
// without writing a new preference row.
func (s *Server) buildTemplate(w http.ResponseWriter, r *http.Request) {
	pref, err := s.repo.LatestUserPref()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load preferences", err)
		return
	}
	if pref == nil {
		respondWithError(w, http.StatusBadRequest, "no preferences on record; onboard first", nil)
		return
	}
	budget := getFloatParam(r, "budget", pref.Budget)
	if budget <= 0 {
		respondWithError(w, http.StatusBadRequest, "budget must be positive", nil)
		return
	}

	weights := portfolio.TemplateByRisk(pref.Risk, pref.MicroCaps)
	allocations, err := s.allocateAndStore(r, budget, weights, nil)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to price the portfolio", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategy":    "template",
		"risk":        pref.Risk,
		"weights":     weights,
		"allocations": allocations,
	})
}

// buildMomentum rebuilds the holdings from the momentum screen: score the
// candidate universe on trailing returns, keep the leaders equal-weighted.
func (s *Server) buildMomentum(w http.ResponseWriter, r *http.Request) {
	pref, err := s.repo.LatestUserPref()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load preferences", err)
		return
	}
	budget := getFloatParam(r, "budget", 0)
	if budget <= 0 && pref != nil {
		budget = pref.Budget
	}
	if budget <= 0 {
		respondWithError(w, http.StatusBadRequest, "budget required; onboard first or pass ?budget=", nil)
		return
	}

	symbols := s.candidateSymbols(r)
	if len(symbols) == 0 {
		respondWithError(w, http.StatusBadRequest, "no candidate symbols; refresh tickers or pass ?symbols=", nil)
		return
	}

	scored := make([]portfolio.Scored, 0, len(symbols))
	for _, sym := range symbols {
		closes := s.closeSeries(r, sym, 126)
		if sc, ok := portfolio.ScoreCloses(sym, closes); ok {
			scored = append(scored, sc)
		}
	}
	leaders := portfolio.TopMomentum(scored)
	if len(leaders) == 0 {
		respondWithError(w, http.StatusBadGateway, "No candidates could be scored", nil)
		return
	}

	weights := portfolio.EqualWeights(leaders)
	allocations, err := s.allocateAndStore(r, budget, weights, scoredBySymbol(leaders))
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to price the portfolio", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategy":    "momentum",
		"leaders":     leaders,
		"allocations": allocations,
	})
}

// scoredBySymbol indexes the momentum leaders for the holdings writer
func scoredBySymbol(leaders []portfolio.Scored) map[string]portfolio.Scored {
	out := make(map[string]portfolio.Scored, len(leaders))
	for _, sc := range leaders {
		out[sc.Symbol] = sc
	}
	return out
}

// candidateSymbols resolves the momentum universe: an explicit ?symbols= list
// wins, otherwise the stored index constituents.
func (s *Server) candidateSymbols(r *http.Request) []string {
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		parts := strings.Split(raw, ",")
		symbols := make([]string, 0, len(parts))
		for _, p := range parts {
			if sym := strings.ToUpper(strings.TrimSpace(p)); sym != "" {
				symbols = append(symbols, sym)
			}
		}
		return symbols
	}

	maxUniverse := 50
	tickers, err := s.repo.ListTickers("", maxUniverse)
	if err != nil {
		return nil
	}
	symbols := make([]string, 0, len(tickers))
	for _, t := range tickers {
		symbols = append(symbols, t.Symbol)
	}
	return symbols
}

// closeSeries loads a close series from the local store, falling back to the
// data API and warming the store on a miss.
func (s *Server) closeSeries(r *http.Request, symbol string, limit int) []float64 {
	bars, err := s.repo.GetPriceBars(symbol, limit)
	if err == nil && len(bars) >= 2 {
		closes := make([]float64, 0, len(bars))
		for _, b := range bars {
			closes = append(closes, b.Close)
		}
		return closes
	}

	apiBars, err := s.broker.GetDailyBars(r.Context(), symbol, limit)
	if err != nil || len(apiBars) == 0 {
		return nil
	}

	rows := make([]database.PriceBar, 0, len(apiBars))
	closes := make([]float64, 0, len(apiBars))
	for _, b := range apiBars {
		rows = append(rows, database.PriceBar{
			Symbol: strings.ToUpper(symbol),
			Date:   b.Timestamp.UTC().Truncate(24 * time.Hour),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
		closes = append(closes, b.Close)
	}
	if err := s.repo.SavePriceBars(rows); err != nil {
		log.Printf("⚠️ Failed to cache bars for %s: %v", symbol, err)
	}
	return closes
}

// handleTrackReturns compares recent relative returns across symbols
func (s *Server) handleTrackReturns(w http.ResponseWriter, r *http.Request) {
	minDays, maxDays := 2, 365
	days := getIntParam(r, "days", 30, &minDays, &maxDays)

	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if sym := strings.ToUpper(strings.TrimSpace(p)); sym != "" {
				symbols = append(symbols, sym)
			}
		}
	} else {
		holdings, err := s.repo.GetHoldings()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch holdings", err)
			return
		}
		for _, h := range holdings {
			symbols = append(symbols, h.Symbol)
		}
	}
	if len(symbols) == 0 {
		respondWithError(w, http.StatusBadRequest, "no symbols to track", nil)
		return
	}

	returns, err := s.reports.TrackReturns(r.Context(), symbols, days)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to compute returns", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"returns": returns,
	})
}
