package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"wealthai-simulator/portfolio"
)

func TestScoredBySymbol(t *testing.T) {
	leaders := []portfolio.Scored{
		{Symbol: "AAPL", Momentum: 0.12},
		{Symbol: "MSFT", Momentum: 0.08},
	}

	got := scoredBySymbol(leaders)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got["AAPL"].Momentum != 0.12 {
		t.Errorf("AAPL momentum = %v, want 0.12", got["AAPL"].Momentum)
	}
	if _, ok := got["MSFT"]; !ok {
		t.Error("missing MSFT entry")
	}
}

func TestBuildPortfolioRejectsUnknownStrategy(t *testing.T) {
	s := &Server{}
	r := httptest.NewRequest("POST", "/api/portfolio/build?strategy=yolo", nil)
	w := httptest.NewRecorder()

	s.handleBuildPortfolio(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
