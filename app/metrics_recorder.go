package app

import (
	"context"
	"log"
	"time"

	"wealthai-simulator/broker"
	"wealthai-simulator/database"
)

// MetricsRecorder periodically records account equity against the benchmark
// so the daily metrics series keeps filling even without rebalances.
type MetricsRecorder struct {
	repo      *database.PortfolioRepository
	broker    *broker.Client
	benchmark string
	interval  time.Duration
	stopChan  chan struct{}
}

// NewMetricsRecorder creates a recorder on the given interval
func NewMetricsRecorder(repo *database.PortfolioRepository, brk *broker.Client, benchmark string, interval time.Duration) *MetricsRecorder {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &MetricsRecorder{
		repo:      repo,
		broker:    brk,
		benchmark: benchmark,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start runs the recording loop until Stop is called
func (m *MetricsRecorder) Start() {
	log.Printf("📊 Metrics recorder started (every %v)", m.interval)

	// Record once at startup so a fresh deployment has a baseline
	m.record()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.record()
		case <-m.stopChan:
			return
		}
	}
}

// Stop signals the recording loop to exit
func (m *MetricsRecorder) Stop() {
	close(m.stopChan)
}

func (m *MetricsRecorder) record() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	account, err := m.broker.GetAccount(ctx)
	if err != nil {
		log.Printf("⚠️ Metrics recorder: account fetch failed: %v", err)
		return
	}

	metric := database.DailyMetric{
		Equity: account.Equity,
		Note:   "scheduled",
	}

	if m.benchmark != "" {
		bars, err := m.broker.GetDailyBars(ctx, m.benchmark, 5)
		if err == nil && len(bars) > 0 {
			metric.BenchmarkValue = bars[len(bars)-1].Close
		}
	}

	if err := m.repo.SaveDailyMetric(&metric); err != nil {
		log.Printf("⚠️ Metrics recorder: save failed: %v", err)
		return
	}
	log.Printf("📊 Recorded equity %.2f (benchmark %s %.2f)", metric.Equity, m.benchmark, metric.BenchmarkValue)
}
