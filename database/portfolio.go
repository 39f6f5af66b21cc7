package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// SaveUserPref persists an onboarding record. Preferences are immutable:
// every call creates a new row and the newest row wins.
func (r *PortfolioRepository) SaveUserPref(pref *UserPref) error {
	if err := r.db.db.Create(pref).Error; err != nil {
		return fmt.Errorf("SaveUserPref: %w", err)
	}
	return nil
}

// LatestUserPref returns the most recent onboarding record, nil if none exists
func (r *PortfolioRepository) LatestUserPref() (*UserPref, error) {
	var pref UserPref
	err := r.db.db.Order("id DESC").First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestUserPref: %w", err)
	}
	return &pref, nil
}

// ReplaceHoldings swaps the whole simulated portfolio inside a transaction
func (r *PortfolioRepository) ReplaceHoldings(holdings []PortfolioHolding) error {
	tx := r.db.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("ReplaceHoldings: %w", tx.Error)
	}

	if err := tx.Where("1 = 1").Delete(&PortfolioHolding{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ReplaceHoldings delete: %w", err)
	}

	for i := range holdings {
		holdings[i].Symbol = strings.ToUpper(strings.TrimSpace(holdings[i].Symbol))
		if err := tx.Create(&holdings[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("ReplaceHoldings insert %s: %w", holdings[i].Symbol, err)
		}
	}

	return tx.Commit().Error
}

// GetHoldings returns the current simulated portfolio ordered by weight
func (r *PortfolioRepository) GetHoldings() ([]PortfolioHolding, error) {
	var holdings []PortfolioHolding
	if err := r.db.db.Order("weight DESC, symbol ASC").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("GetHoldings: %w", err)
	}
	return holdings, nil
}

// SaveForecast overwrites the forecast row for (symbol, model, horizon)
func (r *PortfolioRepository) SaveForecast(f *Forecast) error {
	tx := r.db.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("SaveForecast: %w", tx.Error)
	}

	err := tx.Where("symbol = ? AND model = ? AND horizon_days = ?",
		f.Symbol, f.Model, f.HorizonDays).Delete(&Forecast{}).Error
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("SaveForecast delete: %w", err)
	}

	if err := tx.Create(f).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("SaveForecast insert: %w", err)
	}

	return tx.Commit().Error
}

// GetForecasts returns stored forecasts for a symbol, newest first
func (r *PortfolioRepository) GetForecasts(symbol string) ([]Forecast, error) {
	var out []Forecast
	err := r.db.db.Where("symbol = ?", strings.ToUpper(symbol)).
		Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("GetForecasts %s: %w", symbol, err)
	}
	return out, nil
}
