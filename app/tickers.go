package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"wealthai-simulator/config"
	"wealthai-simulator/database"
)

// TickerRefresher downloads index constituent lists (CSV over HTTP) and
// replaces the stored universe.
type TickerRefresher struct {
	repo   *database.PortfolioRepository
	cfg    config.TickerConfig
	client *http.Client
}

// NewTickerRefresher creates a refresher for the configured sources
func NewTickerRefresher(repo *database.PortfolioRepository, cfg config.TickerConfig) *TickerRefresher {
	return &TickerRefresher{
		repo:   repo,
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Refresh re-downloads every configured source. Returns the total number of
// symbols stored; a source that fails is logged and skipped so one bad feed
// cannot wipe the other index.
func (t *TickerRefresher) Refresh(ctx context.Context) (int, error) {
	sources := []struct {
		index string
		url   string
	}{
		{"SP500", t.cfg.SP500URL},
		{"NASDAQ100", t.cfg.Nasdaq100URL},
	}

	total := 0
	var lastErr error
	for _, src := range sources {
		if src.url == "" {
			continue
		}
		symbols, err := t.fetchCSV(ctx, src.url)
		if err != nil {
			log.Printf("⚠️ Ticker source %s failed: %v", src.index, err)
			lastErr = err
			continue
		}
		if err := t.repo.ReplaceTickers(src.index, symbols); err != nil {
			log.Printf("⚠️ Failed to store %s tickers: %v", src.index, err)
			lastErr = err
			continue
		}
		log.Printf("✅ Refreshed %d %s constituents", len(symbols), src.index)
		total += len(symbols)
	}

	if total == 0 && lastErr != nil {
		return 0, lastErr
	}
	return total, nil
}

// fetchCSV downloads a constituent CSV and extracts the symbol column. The
// column is found by header name, falling back to the first column.
func (t *TickerRefresher) fetchCSV(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1 // ragged rows happen in these feeds

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	symbolCol := 0
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "symbol") ||
			strings.EqualFold(strings.TrimSpace(name), "ticker") {
			symbolCol = i
			break
		}
	}

	var symbols []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row: %w", err)
		}
		if symbolCol >= len(record) {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(record[symbolCol]))
		if sym == "" || sym == "SYMBOL" {
			continue
		}
		// Share classes come dotted in some feeds; the data API wants them plain
		sym = strings.ReplaceAll(sym, ".", "")
		symbols = append(symbols, sym)
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols found in %s", url)
	}
	return symbols, nil
}
