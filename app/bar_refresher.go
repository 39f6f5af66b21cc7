package app

import (
	"context"
	"log"
	"strings"
	"time"

	"wealthai-simulator/broker"
	"wealthai-simulator/database"
)

// BarRefresher keeps daily price bars warm for the held symbols plus the
// benchmark. The track and report queries read only from the local store,
// so without this loop they would go stale.
type BarRefresher struct {
	repo      *database.PortfolioRepository
	broker    *broker.Client
	benchmark string
	interval  time.Duration
	stopChan  chan struct{}
}

// NewBarRefresher creates a refresher on the given interval
func NewBarRefresher(repo *database.PortfolioRepository, brk *broker.Client, benchmark string, interval time.Duration) *BarRefresher {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &BarRefresher{
		repo:      repo,
		broker:    brk,
		benchmark: benchmark,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start runs the refresh loop until Stop is called
func (b *BarRefresher) Start() {
	log.Printf("🔄 Bar refresher started (every %v)", b.interval)

	b.refresh()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.refresh()
		case <-b.stopChan:
			return
		}
	}
}

// Stop signals the refresh loop to exit
func (b *BarRefresher) Stop() {
	close(b.stopChan)
}

func (b *BarRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	symbols := b.watchlist()
	updated := 0
	for _, sym := range symbols {
		if err := b.refreshSymbol(ctx, sym); err != nil {
			log.Printf("⚠️ Bar refresh %s failed: %v", sym, err)
			continue
		}
		updated++
	}
	if updated > 0 {
		log.Printf("🔄 Refreshed bars for %d symbols", updated)
	}
}

// watchlist is the held symbols plus the benchmark, deduplicated
func (b *BarRefresher) watchlist() []string {
	seen := map[string]bool{}
	var symbols []string

	add := func(sym string) {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym != "" && !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}

	holdings, err := b.repo.GetHoldings()
	if err != nil {
		log.Printf("⚠️ Bar refresher: holdings fetch failed: %v", err)
	}
	for _, h := range holdings {
		add(h.Symbol)
	}
	add(b.benchmark)
	return symbols
}

// refreshSymbol fetches only the bars newer than what is already stored
func (b *BarRefresher) refreshSymbol(ctx context.Context, symbol string) error {
	since, err := b.repo.LatestBarDate(symbol)
	if err != nil {
		return err
	}

	limit := 252
	if !since.IsZero() {
		days := int(time.Since(since).Hours()/24) + 1
		if days < limit {
			limit = days
		}
	}
	if limit <= 0 {
		return nil
	}

	bars, err := b.broker.GetDailyBars(ctx, symbol, limit)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return nil
	}

	rows := make([]database.PriceBar, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, database.PriceBar{
			Symbol: symbol,
			Date:   bar.Timestamp.UTC().Truncate(24 * time.Hour),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}
	return b.repo.SavePriceBars(rows)
}
