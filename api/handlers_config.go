package api

import (
	"net/http"
	"strings"
	"time"
)

// handleGetTickers lists stored index constituents
func (s *Server) handleGetTickers(w http.ResponseWriter, r *http.Request) {
	indexName := strings.ToUpper(r.URL.Query().Get("index"))
	minLimit, maxLimit := 1, 1000
	limit := getIntParam(r, "limit", 500, &minLimit, &maxLimit)

	tickers, err := s.repo.ListTickers(indexName, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch tickers", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tickers": tickers,
		"count":   len(tickers),
	})
}

// handleRefreshTickers re-downloads the index constituent lists
func (s *Server) handleRefreshTickers(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Ticker refresh is not configured", nil)
		return
	}

	count, err := s.refresher.Refresh(r.Context())
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Ticker refresh failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"refreshed": count,
	})
}

// handleGetTrades returns the recent paper-trade journal
func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	minLimit, maxLimit := 1, 500
	limit := getIntParam(r, "limit", 50, &minLimit, &maxLimit)

	trades, err := s.repo.RecentTrades(limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch trades", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}

// handleHealth is the liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
