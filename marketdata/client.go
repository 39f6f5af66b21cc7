// Package marketdata maintains the brokerage market-data websocket: connect,
// authenticate, subscribe to trade events for tracked symbols, and hand the
// resulting quotes to the caller.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents the market-data websocket connection
type Client struct {
	url        string
	apiKey     string
	secretKey  string
	conn       *websocket.Conn
	writeMu    sync.Mutex
	pingCancel context.CancelFunc
}

// NewClient creates a new market-data websocket client
func NewClient(url, apiKey, secretKey string) *Client {
	return &Client{
		url:       url,
		apiKey:    apiKey,
		secretKey: secretKey,
	}
}

// authMessage is the key-pair handshake sent right after connecting
type authMessage struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// subscribeMessage registers interest in trade events for a set of symbols
type subscribeMessage struct {
	Action string   `json:"action"`
	Trades []string `json:"trades"`
}

// streamEvent is one element of the JSON array frames the stream sends
type streamEvent struct {
	Type      string    `json:"T"` // "t" trade, "success", "error", "subscription"
	Symbol    string    `json:"S"`
	Price     float64   `json:"p"`
	Timestamp time.Time `json:"t"`
	Message   string    `json:"msg"`
	Code      int       `json:"code"`
}

// Quote is one observed trade price
type Quote struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}

// Connect establishes the websocket connection and authenticates
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	c.conn = conn

	if err := c.writeJSON(authMessage{Action: "auth", Key: c.apiKey, Secret: c.secretKey}); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send auth: %w", err)
	}

	log.Printf("✅ Connected to market stream %s", c.url)
	return nil
}

// Subscribe registers for trade events on the given symbols
func (c *Client) Subscribe(symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	if err := c.writeJSON(subscribeMessage{Action: "subscribe", Trades: symbols}); err != nil {
		return fmt.Errorf("failed to send subscription: %w", err)
	}
	log.Printf("📡 Subscribed to %d symbols", len(symbols))
	return nil
}

// StartPing starts periodic websocket pings to keep the connection alive
func (c *Client) StartPing(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	c.pingCancel = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.writeMu.Lock()
				err := c.conn.WriteMessage(websocket.PingMessage, nil)
				c.writeMu.Unlock()
				if err != nil {
					log.Println("Ping failed:", err)
					return
				}
			}
		}
	}()
}

// ReadQuotes reads one frame and returns the trade quotes it carries.
// Control and subscription acknowledgements yield an empty slice.
func (c *Client) ReadQuotes() ([]Quote, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("client not connected")
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return parseFrame(data)
}

// parseFrame decodes one websocket frame into trade quotes
func parseFrame(data []byte) ([]Quote, error) {
	var events []streamEvent
	if err := json.Unmarshal(data, &events); err != nil {
		// Some servers send single objects for control messages
		var single streamEvent
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
		events = []streamEvent{single}
	}

	quotes := make([]Quote, 0, len(events))
	for _, ev := range events {
		switch ev.Type {
		case "t":
			if ev.Symbol != "" && ev.Price > 0 {
				quotes = append(quotes, Quote{Symbol: ev.Symbol, Price: ev.Price, Timestamp: ev.Timestamp})
			}
		case "error":
			return nil, fmt.Errorf("stream error %d: %s", ev.Code, ev.Message)
		}
		// "success" and "subscription" acks carry no quotes
	}
	return quotes, nil
}

// Close closes the websocket connection
func (c *Client) Close() error {
	if c.pingCancel != nil {
		c.pingCancel()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}
