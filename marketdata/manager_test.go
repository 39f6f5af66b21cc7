package marketdata

import (
	"context"
	"testing"
	"time"
)

func TestReadQuotesBeforeConnect(t *testing.T) {
	cm := NewConnectionManager("ws://127.0.0.1:1", "key", "secret", nil)

	if _, err := cm.readQuotes(); err == nil {
		t.Fatal("expected an error reading from an unconnected stream")
	}
}

func TestRunWithoutPriorConnect(t *testing.T) {
	cm := NewConnectionManager("ws://127.0.0.1:1", "key", "secret", []string{"SPY"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		cm.Run(ctx, func(Quote) {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
