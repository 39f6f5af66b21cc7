package marketdata

import (
	"context"
	"fmt"
	"log"
	"time"
)

// QuoteHandler receives every quote observed on the stream
type QuoteHandler func(Quote)

// ConnectionManager handles stream lifecycle, reconnection, and dispatch
type ConnectionManager struct {
	client    *Client
	url       string
	apiKey    string
	secretKey string
	symbols   []string
}

// NewConnectionManager creates a new ConnectionManager
func NewConnectionManager(url, apiKey, secretKey string, symbols []string) *ConnectionManager {
	return &ConnectionManager{
		url:       url,
		apiKey:    apiKey,
		secretKey: secretKey,
		symbols:   symbols,
	}
}

// Connect establishes the initial connection and subscription
func (cm *ConnectionManager) Connect() error {
	cm.client = NewClient(cm.url, cm.apiKey, cm.secretKey)
	if err := cm.client.Connect(); err != nil {
		return err
	}
	if err := cm.client.Subscribe(cm.symbols); err != nil {
		return fmt.Errorf("stream subscription failed: %w", err)
	}
	cm.client.StartPing(25 * time.Second)
	return nil
}

// Reconnect tears down and re-establishes the connection
func (cm *ConnectionManager) Reconnect() error {
	if cm.client != nil {
		cm.client.Close()
	}
	return cm.Connect()
}

// readQuotes guards the read against a not-yet-established connection so
// the reconnect loop can recover instead of panicking.
func (cm *ConnectionManager) readQuotes() ([]Quote, error) {
	if cm.client == nil {
		return nil, fmt.Errorf("stream not connected")
	}
	return cm.client.ReadQuotes()
}

// Run connects if needed and reads quotes until the context is cancelled,
// reconnecting with exponential backoff on stream errors.
func (cm *ConnectionManager) Run(ctx context.Context, handler QuoteHandler) {
	if cm.client == nil {
		if err := cm.Connect(); err != nil {
			// The backoff loop below retries
			log.Printf("⚠️  Initial stream connection failed: %v", err)
		} else {
			log.Println("✅ Market data stream connected")
		}
	}

	reconnectDelay := 5 * time.Second
	maxReconnectDelay := 60 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
			quotes, err := cm.readQuotes()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}

				log.Printf("⚠️  Market stream error: %v", err)
				log.Printf("🔄 Reconnecting in %v...", reconnectDelay)

				select {
				case <-ctx.Done():
					return
				case <-time.After(reconnectDelay):
				}

				if err := cm.Reconnect(); err != nil {
					log.Printf("❌ Stream reconnection failed: %v", err)
					reconnectDelay *= 2
					if reconnectDelay > maxReconnectDelay {
						reconnectDelay = maxReconnectDelay
					}
					continue
				}

				reconnectDelay = 5 * time.Second
				continue
			}

			for _, q := range quotes {
				handler(q)
			}
		}
	}
}

// Close closes the stream connection
func (cm *ConnectionManager) Close() error {
	if cm.client != nil {
		return cm.client.Close()
	}
	return nil
}
