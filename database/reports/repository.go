// Package reports runs the read-only reporting queries over a raw SQL
// connection. These are aggregations for the track and metrics endpoints;
// nothing here writes.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository handles reporting queries
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new reports repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// MetricPoint is one equity-vs-benchmark observation
type MetricPoint struct {
	Ts             time.Time `json:"ts"`
	Equity         float64   `json:"equity"`
	BenchmarkValue float64   `json:"benchmark_value"`
}

// DailyMetrics returns the metrics series for the last `days` days, oldest first
func (r *Repository) DailyMetrics(ctx context.Context, days int) ([]MetricPoint, error) {
	if days <= 0 {
		days = 30
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, equity, benchmark_value
		FROM metrics_daily
		WHERE ts >= NOW() - ($1 || ' days')::interval
		ORDER BY ts ASC`, days)
	if err != nil {
		return nil, fmt.Errorf("query daily metrics: %w", err)
	}
	defer rows.Close()

	points := make([]MetricPoint, 0)
	for rows.Next() {
		var p MetricPoint
		if err := rows.Scan(&p.Ts, &p.Equity, &p.BenchmarkValue); err != nil {
			return nil, fmt.Errorf("scan metric point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily metrics: %w", err)
	}
	return points, nil
}

// RelativeReturn is the price change of one symbol over a window, expressed
// as a fraction of the first close in the window.
type RelativeReturn struct {
	Symbol   string    `json:"symbol"`
	Return   float64   `json:"return"`
	LastDate time.Time `json:"last_date"`
}

// TrackReturns computes the relative return of each symbol over the last
// `days` days from stored price bars. Symbols with fewer than two bars in
// the window are skipped.
func (r *Repository) TrackReturns(ctx context.Context, symbols []string, days int) ([]RelativeReturn, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	if days <= 0 {
		days = 365
	}

	placeholders := make([]string, len(symbols))
	args := make([]any, 0, len(symbols)+1)
	args = append(args, days)
	for i, s := range symbols {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, strings.ToUpper(strings.TrimSpace(s)))
	}

	query := fmt.Sprintf(`
		SELECT symbol,
		       (MAX(last_close) / NULLIF(MAX(first_close), 0)) - 1 AS rel_return,
		       MAX(date) AS last_date
		FROM (
			SELECT symbol, date, close,
			       FIRST_VALUE(close) OVER (PARTITION BY symbol ORDER BY date
			           ROWS BETWEEN UNBOUNDED PRECEDING AND UNBOUNDED FOLLOWING) AS first_close,
			       LAST_VALUE(close) OVER (PARTITION BY symbol ORDER BY date
			           ROWS BETWEEN UNBOUNDED PRECEDING AND UNBOUNDED FOLLOWING) AS last_close
			FROM price_bars
			WHERE date >= NOW() - ($1 || ' days')::interval
			  AND symbol IN (%s)
		) b
		GROUP BY symbol
		HAVING COUNT(*) >= 2`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query track returns: %w", err)
	}
	defer rows.Close()

	out := make([]RelativeReturn, 0, len(symbols))
	for rows.Next() {
		var rr RelativeReturn
		if err := rows.Scan(&rr.Symbol, &rr.Return, &rr.LastDate); err != nil {
			return nil, fmt.Errorf("scan track return: %w", err)
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track returns: %w", err)
	}
	return out, nil
}

// LatestEquity returns the newest recorded equity value, zero if none
func (r *Repository) LatestEquity(ctx context.Context) (float64, error) {
	var equity float64
	err := r.db.QueryRowContext(ctx, `
		SELECT equity FROM metrics_daily ORDER BY ts DESC LIMIT 1`).Scan(&equity)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query latest equity: %w", err)
	}
	return equity, nil
}
