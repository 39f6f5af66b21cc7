package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"wealthai-simulator/config"
)

func TestFetchCSVSymbolColumn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Symbol,Name,Sector\nAAPL,Apple Inc.,Technology\nBRK.B,Berkshire Hathaway,Financials\n ,blank row,\nMSFT,Microsoft,Technology\n"))
	}))
	defer server.Close()

	refresher := NewTickerRefresher(nil, config.TickerConfig{})
	symbols, err := refresher.fetchCSV(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"AAPL", "BRKB", "MSFT"}
	if len(symbols) != len(want) {
		t.Fatalf("got %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbol %d = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func TestFetchCSVTickerHeaderAndRaggedRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Name,Ticker\nNvidia,NVDA\nshort-row\nTesla,TSLA\n"))
	}))
	defer server.Close()

	refresher := NewTickerRefresher(nil, config.TickerConfig{})
	symbols, err := refresher.fetchCSV(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"NVDA", "TSLA"}
	if len(symbols) != len(want) || symbols[0] != want[0] || symbols[1] != want[1] {
		t.Errorf("got %v, want %v", symbols, want)
	}
}

func TestFetchCSVErrors(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Symbol\n"))
	}))
	defer empty.Close()

	refresher := NewTickerRefresher(nil, config.TickerConfig{})

	if _, err := refresher.fetchCSV(context.Background(), notFound.URL); err == nil {
		t.Error("expected error on HTTP 404")
	}
	if _, err := refresher.fetchCSV(context.Background(), empty.URL); err == nil {
		t.Error("expected error on a header-only CSV")
	}
}
