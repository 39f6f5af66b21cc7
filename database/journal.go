package database

import "fmt"

// SaveTrades records a batch of trade rows (previews or submissions)
func (r *PortfolioRepository) SaveTrades(trades []TradeLog) error {
	if len(trades) == 0 {
		return nil
	}
	if err := r.db.db.Create(&trades).Error; err != nil {
		return fmt.Errorf("SaveTrades: %w", err)
	}
	return nil
}

// RecentTrades returns the latest trade rows, newest first
func (r *PortfolioRepository) RecentTrades(limit int) ([]TradeLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var trades []TradeLog
	if err := r.db.db.Order("ts DESC").Limit(limit).Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("RecentTrades: %w", err)
	}
	return trades, nil
}

// SavePositionSnapshots records a point-in-time copy of broker positions
func (r *PortfolioRepository) SavePositionSnapshots(snaps []PositionSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	if err := r.db.db.Create(&snaps).Error; err != nil {
		return fmt.Errorf("SavePositionSnapshots: %w", err)
	}
	return nil
}

// SaveDailyMetric appends one equity-vs-benchmark metrics row
func (r *PortfolioRepository) SaveDailyMetric(m *DailyMetric) error {
	if err := r.db.db.Create(m).Error; err != nil {
		return fmt.Errorf("SaveDailyMetric: %w", err)
	}
	return nil
}
