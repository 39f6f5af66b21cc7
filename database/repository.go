package database

import (
	"fmt"
	"strings"
	"time"
)

// PortfolioRepository handles database operations for the simulator
type PortfolioRepository struct {
	db *Database
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *Database) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// InitSchema performs auto-migration and index setup
func (r *PortfolioRepository) InitSchema() error {
	fmt.Println("🔄 Starting database schema initialization...")

	err := r.db.db.AutoMigrate(
		&Ticker{},
		&PriceBar{},
		&PortfolioHolding{},
		&Forecast{},
		&UserPref{},
		&TradeLog{},
		&PositionSnapshot{},
		&DailyMetric{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	// (symbol, date) uniquely identifies a price bar. GORM composite unique
	// tags fight with the surrogate key, so the index is managed manually.
	if err := r.db.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_price_bars_symbol_date
		ON price_bars (symbol, date)
	`).Error; err != nil {
		return fmt.Errorf("failed to create price bar index: %w", err)
	}

	// No foreign keys are declared anywhere; referential integrity is an
	// application-level concern.
	r.db.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_trades_ticker_ts
		ON trades (ticker, ts DESC)
	`)
	r.db.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_metrics_daily_ts
		ON metrics_daily (ts DESC)
	`)

	fmt.Println("✅ Database schema initialization completed successfully")
	return nil
}

// ReplaceTickers replaces the constituents of one index inside a transaction
func (r *PortfolioRepository) ReplaceTickers(indexName string, symbols []string) error {
	tx := r.db.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("ReplaceTickers: %w", tx.Error)
	}

	if err := tx.Where("index_name = ?", indexName).Delete(&Ticker{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ReplaceTickers delete: %w", err)
	}

	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if err := tx.Create(&Ticker{IndexName: indexName, Symbol: sym}).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("ReplaceTickers insert %s: %w", sym, err)
		}
	}

	return tx.Commit().Error
}

// ListTickers returns constituents, optionally filtered by index name
func (r *PortfolioRepository) ListTickers(indexName string, limit int) ([]Ticker, error) {
	query := r.db.db.Order("symbol ASC")
	if indexName != "" {
		query = query.Where("index_name = ?", indexName)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var tickers []Ticker
	if err := query.Find(&tickers).Error; err != nil {
		return nil, fmt.Errorf("ListTickers: %w", err)
	}
	return tickers, nil
}

// SavePriceBars appends daily bars, ignoring duplicates on (symbol, date)
func (r *PortfolioRepository) SavePriceBars(bars []PriceBar) error {
	for i := range bars {
		if err := r.db.db.Create(&bars[i]).Error; err != nil {
			// Bars are append-only; a rerun over the same window is expected
			// to collide with the unique index and is not an error.
			if strings.Contains(err.Error(), "duplicate key value violates unique constraint") ||
				strings.Contains(err.Error(), "idx_price_bars_symbol_date") {
				continue
			}
			return fmt.Errorf("SavePriceBars %s: %w", bars[i].Symbol, err)
		}
	}
	return nil
}

// GetPriceBars returns up to limit daily bars for a symbol, oldest first
func (r *PortfolioRepository) GetPriceBars(symbol string, limit int) ([]PriceBar, error) {
	var bars []PriceBar
	query := r.db.db.Where("symbol = ?", strings.ToUpper(symbol)).Order("date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&bars).Error; err != nil {
		return nil, fmt.Errorf("GetPriceBars %s: %w", symbol, err)
	}

	// Reverse into chronological order for the callers doing series math
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// LatestBarDate returns the most recent bar date for a symbol, zero if none
func (r *PortfolioRepository) LatestBarDate(symbol string) (time.Time, error) {
	var bar PriceBar
	err := r.db.db.Where("symbol = ?", strings.ToUpper(symbol)).
		Order("date DESC").Limit(1).Find(&bar).Error
	if err != nil {
		return time.Time{}, fmt.Errorf("LatestBarDate %s: %w", symbol, err)
	}
	return bar.Date, nil
}
