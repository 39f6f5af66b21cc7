// Package broker implements the paper-brokerage REST client. The evaluator
// and services consume it through small capability interfaces, so everything
// here stays swappable in tests.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the brokerage trade and data APIs
type Client struct {
	tradeURL  string
	dataURL   string
	apiKey    string
	secretKey string
	client    *http.Client
}

// NewClient creates a new brokerage client
func NewClient(tradeURL, dataURL, apiKey, secretKey string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		tradeURL:  strings.TrimRight(tradeURL, "/"),
		dataURL:   strings.TrimRight(dataURL, "/"),
		apiKey:    apiKey,
		secretKey: secretKey,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

// Account is the brokerage account state. The API quotes its numbers.
type Account struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Equity float64 `json:"equity,string"`
	Cash   float64 `json:"cash,string"`
}

// Position is one open brokerage position
type Position struct {
	Symbol        string  `json:"symbol"`
	Qty           float64 `json:"qty,string"`
	AvgEntryPrice float64 `json:"avg_entry_price,string"`
	CurrentPrice  float64 `json:"current_price,string"`
	MarketValue   float64 `json:"market_value,string"`
}

// Clock is the market calendar state
type Clock struct {
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

// Order is a submitted order confirmation
type Order struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Status string `json:"status"`
}

// Bar is one daily OHLCV bar from the data API
type Bar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

// GetAccount fetches the account state
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var acct Account
	if err := c.get(ctx, c.tradeURL+"/v2/account", &acct); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}

// GetPositions fetches all open positions
func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	var positions []Position
	if err := c.get(ctx, c.tradeURL+"/v2/positions", &positions); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	return positions, nil
}

// GetClock fetches the market calendar state
func (c *Client) GetClock(ctx context.Context) (*Clock, error) {
	var clock Clock
	if err := c.get(ctx, c.tradeURL+"/v2/clock", &clock); err != nil {
		return nil, fmt.Errorf("get clock: %w", err)
	}
	return &clock, nil
}

// IsMarketOpen reports whether the market is currently open
func (c *Client) IsMarketOpen(ctx context.Context) (bool, error) {
	clock, err := c.GetClock(ctx)
	if err != nil {
		return false, err
	}
	return clock.IsOpen, nil
}

// SubmitOrder submits a notional market order and returns the confirmation
func (c *Client) SubmitOrder(ctx context.Context, symbol, side string, notional float64) (*Order, error) {
	body := map[string]any{
		"symbol":        strings.ToUpper(symbol),
		"notional":      fmt.Sprintf("%.2f", notional),
		"side":          strings.ToLower(side),
		"type":          "market",
		"time_in_force": "day",
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.tradeURL+"/v2/orders", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("order API error %d: %s", resp.StatusCode, string(raw))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	return &order, nil
}

// snapshot mirrors the data API's per-symbol snapshot payload
type snapshot struct {
	LatestQuote struct {
		AskPrice float64 `json:"ap"`
	} `json:"latestQuote"`
	LatestTrade struct {
		Price float64 `json:"p"`
	} `json:"latestTrade"`
	PrevDailyBar struct {
		Close float64 `json:"c"`
	} `json:"prevDailyBar"`
}

// GetSnapshots fetches latest prices for up to 200 symbols. Symbols without a
// usable price are absent from the result.
func (c *Client) GetSnapshots(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}
	if len(symbols) > 200 {
		symbols = symbols[:200]
	}

	u := fmt.Sprintf("%s/v2/stocks/snapshots?symbols=%s",
		c.dataURL, url.QueryEscape(strings.Join(symbols, ",")))

	// The API answers either {"snapshots": {SYM: {...}}} or a bare
	// {SYM: {...}} map depending on the endpoint version.
	var raw map[string]json.RawMessage
	if err := c.get(ctx, u, &raw); err != nil {
		return nil, fmt.Errorf("get snapshots: %w", err)
	}

	payload := make(map[string]snapshot, len(raw))
	if wrapped, ok := raw["snapshots"]; ok && len(raw) == 1 {
		if err := json.Unmarshal(wrapped, &payload); err != nil {
			return nil, fmt.Errorf("decode snapshots: %w", err)
		}
	} else {
		for sym, msg := range raw {
			var snap snapshot
			if err := json.Unmarshal(msg, &snap); err != nil {
				continue // non-snapshot metadata field
			}
			payload[sym] = snap
		}
	}

	prices := make(map[string]float64, len(payload))
	for sym, snap := range payload {
		// Prefer ask, fall back to last trade, then previous close
		price := snap.LatestQuote.AskPrice
		if price <= 0 {
			price = snap.LatestTrade.Price
		}
		if price <= 0 {
			price = snap.PrevDailyBar.Close
		}
		if price > 0 {
			prices[strings.ToUpper(sym)] = price
		}
	}
	return prices, nil
}

// GetDailyBars fetches up to limit daily bars for a symbol, oldest first
func (c *Client) GetDailyBars(ctx context.Context, symbol string, limit int) ([]Bar, error) {
	if limit <= 0 {
		limit = 252
	}

	u := fmt.Sprintf("%s/v2/stocks/%s/bars?timeframe=1Day&limit=%d&adjustment=split",
		c.dataURL, url.PathEscape(strings.ToUpper(symbol)), limit)

	var payload struct {
		Bars []Bar `json:"bars"`
	}
	if err := c.get(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("get daily bars %s: %w", symbol, err)
	}
	return payload.Bars, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)
}

func (c *Client) get(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
