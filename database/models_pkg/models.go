package models

import "time"

// Ticker represents an index constituent in the tradable universe.
// The table is replaced wholesale on each refresh run, so rows carry no
// update timestamps of their own.
type Ticker struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	IndexName string `gorm:"size:20;index;not null" json:"index_name"` // SP500, NASDAQ100
	Symbol    string `gorm:"size:10;index;not null" json:"symbol"`
}

// TableName specifies the table name for Ticker
func (Ticker) TableName() string {
	return "tickers"
}

// PriceBar represents a daily OHLCV bar for one symbol.
// Bars are append-only; (symbol, date) uniquely identifies a bar and the
// repository enforces that with a unique index rather than a composite key,
// so existing integrations keep a surrogate id.
type PriceBar struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol   string    `gorm:"size:10;not null;index" json:"symbol"`
	Date     time.Time `gorm:"type:date;not null" json:"date"`
	Open     float64   `gorm:"type:decimal(15,4);not null" json:"open"`
	High     float64   `gorm:"type:decimal(15,4);not null" json:"high"`
	Low      float64   `gorm:"type:decimal(15,4);not null" json:"low"`
	Close    float64   `gorm:"type:decimal(15,4);not null" json:"close"`
	Volume   float64   `gorm:"type:decimal(20,2)" json:"volume"`
}

// TableName specifies the table name for PriceBar
func (PriceBar) TableName() string {
	return "price_bars"
}

// PortfolioHolding represents one position of the current simulated portfolio.
// The whole set is replaced on each build/rebalance, mirroring the
// delete-then-insert write path.
//
// Key Fields:
//   - Weight: target share of the portfolio (0..1); the set is expected to
//     sum to at most 1, which is an application-level concern, not a schema one
//   - Momentum: trailing 6-month return used for ranking
//   - Pattern: detected chart label (e.g. "Golden Cross")
type PortfolioHolding struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol    string    `gorm:"size:10;index;not null" json:"symbol"`
	Weight    float64   `gorm:"type:decimal(8,6);not null" json:"weight"`
	Qty       float64   `gorm:"type:decimal(15,4);default:0" json:"qty"`
	LastPrice float64   `gorm:"type:decimal(15,4);default:0" json:"last_price"`
	Momentum  float64   `gorm:"type:decimal(10,6);default:0" json:"momentum"`
	Pattern   string    `gorm:"size:30" json:"pattern,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for PortfolioHolding
func (PortfolioHolding) TableName() string {
	return "portfolio_holdings"
}

// Forecast represents the latest model output for a symbol. Each
// (symbol, model, horizon) combination keeps exactly one row; forecast runs
// overwrite the previous result.
type Forecast struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol         string    `gorm:"size:10;index;not null" json:"symbol"`
	HorizonDays    int       `gorm:"not null" json:"horizon_days"`
	Model          string    `gorm:"size:20;not null" json:"model"` // linear, drift
	LastPrice      float64   `gorm:"type:decimal(15,4)" json:"last_price"`
	PredictedPrice float64   `gorm:"type:decimal(15,4)" json:"predicted_price"`
	RMSE           float64   `gorm:"type:decimal(15,6)" json:"rmse"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for Forecast
func (Forecast) TableName() string {
	return "forecasts"
}

// UserPref captures a user's onboarding answers. Preferences are immutable;
// a change produces a new record and the latest row wins.
type UserPref struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Budget        float64   `gorm:"type:decimal(15,2);not null" json:"budget"`
	Goal          string    `gorm:"size:20;default:growth" json:"goal"`  // growth, income, balanced
	Risk          string    `gorm:"size:20;default:medium" json:"risk"`  // low, medium, high
	HorizonMonths int       `gorm:"default:12" json:"horizon_months"`
	MicroCaps     bool      `gorm:"default:false" json:"micro_caps"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for UserPref
func (UserPref) TableName() string {
	return "user_prefs"
}

// TradeLog records every evaluated or submitted paper trade.
//
// Key Fields:
//   - Side: BUY or SELL
//   - Notional: order size in USD (paper orders are notional, not share-count)
//   - Status: preview, submitted, or failed
//   - OrderID: brokerage confirmation id, empty for previews and failures
type TradeLog struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Ts       time.Time `gorm:"index;autoCreateTime" json:"ts"`
	Ticker   string    `gorm:"size:10;index;not null" json:"ticker"`
	Side     string    `gorm:"size:10;not null" json:"side"`
	Qty      float64   `gorm:"type:decimal(15,4)" json:"qty"`
	Notional float64   `gorm:"type:decimal(15,2)" json:"notional"`
	Price    float64   `gorm:"type:decimal(15,4)" json:"price"`
	OrderID  string    `gorm:"size:64" json:"order_id,omitempty"`
	Status   string    `gorm:"size:20;default:preview" json:"status"`
	Note     string    `gorm:"size:200" json:"note,omitempty"`
}

// TableName specifies the table name for TradeLog
func (TradeLog) TableName() string {
	return "trades"
}

// PositionSnapshot is a point-in-time copy of a brokerage position, written
// after each submitted rebalance for reporting.
type PositionSnapshot struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Ts          time.Time `gorm:"index;autoCreateTime" json:"ts"`
	Ticker      string    `gorm:"size:10;index;not null" json:"ticker"`
	Qty         float64   `gorm:"type:decimal(15,4)" json:"qty"`
	AvgPrice    float64   `gorm:"type:decimal(15,4)" json:"avg_price"`
	MarketPrice float64   `gorm:"type:decimal(15,4)" json:"market_price"`
	MarketValue float64   `gorm:"type:decimal(15,2)" json:"market_value"`
}

// TableName specifies the table name for PositionSnapshot
func (PositionSnapshot) TableName() string {
	return "positions_snapshots"
}

// DailyMetric tracks account equity against the benchmark, one row per
// recording run.
type DailyMetric struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Ts             time.Time `gorm:"index;autoCreateTime" json:"ts"`
	Equity         float64   `gorm:"type:decimal(15,2)" json:"equity"`
	PnlDay         float64   `gorm:"type:decimal(15,2)" json:"pnl_day"`
	PnlTotal       float64   `gorm:"type:decimal(15,2)" json:"pnl_total"`
	BenchmarkValue float64   `gorm:"type:decimal(15,4)" json:"benchmark_value"`
	Note           string    `gorm:"size:200" json:"note,omitempty"`
}

// TableName specifies the table name for DailyMetric
func (DailyMetric) TableName() string {
	return "metrics_daily"
}
