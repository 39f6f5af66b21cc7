// Package forecast fits simple price models over daily close series.
// These are teaching models, not trading models; each run reports its
// in-sample RMSE so the UI can show how rough the fit is.
package forecast

import (
	"fmt"
	"math"
)

// Models supported by the service
const (
	ModelLinear = "linear"
	ModelDrift  = "drift"
)

// minObservations is the smallest series either model accepts
const minObservations = 30

// Result is one forecast run
type Result struct {
	Model     string    `json:"model"`
	LastPrice float64   `json:"last_price"`
	Predicted float64   `json:"predicted_price"` // final point of the path
	Path      []float64 `json:"forecast"`
	RMSE      float64   `json:"rmse"`
}

// Run dispatches to the named model
func Run(model string, closes []float64, horizonDays int) (Result, error) {
	switch model {
	case ModelLinear:
		return Linear(closes, horizonDays)
	case ModelDrift:
		return Drift(closes, horizonDays)
	default:
		return Result{}, fmt.Errorf("unknown forecast model %q", model)
	}
}

// Linear fits an ordinary least squares trend over the close series and
// extrapolates it horizonDays forward.
func Linear(closes []float64, horizonDays int) (Result, error) {
	if err := validate(closes, horizonDays); err != nil {
		return Result{}, err
	}

	n := float64(len(closes))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range closes {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Result{}, fmt.Errorf("degenerate close series")
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	// In-sample fit error
	var sqErr float64
	for i, y := range closes {
		fitted := intercept + slope*float64(i)
		sqErr += (y - fitted) * (y - fitted)
	}
	rmse := math.Sqrt(sqErr / n)

	path := make([]float64, horizonDays)
	for h := 0; h < horizonDays; h++ {
		path[h] = intercept + slope*float64(len(closes)+h)
	}

	return Result{
		Model:     ModelLinear,
		LastPrice: closes[len(closes)-1],
		Predicted: path[len(path)-1],
		Path:      path,
		RMSE:      rmse,
	}, nil
}

// Drift extrapolates the mean daily log return. It replaces heavier
// sequence models with the standard naive-with-drift baseline.
func Drift(closes []float64, horizonDays int) (Result, error) {
	if err := validate(closes, horizonDays); err != nil {
		return Result{}, err
	}

	var sumLog float64
	count := 0
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return Result{}, fmt.Errorf("non-positive close in series")
		}
		sumLog += math.Log(closes[i] / closes[i-1])
		count++
	}
	mu := sumLog / float64(count)

	// One-step in-sample error of the drift prediction
	var sqErr float64
	for i := 1; i < len(closes); i++ {
		predicted := closes[i-1] * math.Exp(mu)
		sqErr += (closes[i] - predicted) * (closes[i] - predicted)
	}
	rmse := math.Sqrt(sqErr / float64(count))

	last := closes[len(closes)-1]
	path := make([]float64, horizonDays)
	for h := 0; h < horizonDays; h++ {
		path[h] = last * math.Exp(mu*float64(h+1))
	}

	return Result{
		Model:     ModelDrift,
		LastPrice: last,
		Predicted: path[len(path)-1],
		Path:      path,
		RMSE:      rmse,
	}, nil
}

func validate(closes []float64, horizonDays int) error {
	if len(closes) < minObservations {
		return fmt.Errorf("need at least %d closes, got %d", minObservations, len(closes))
	}
	if horizonDays <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", horizonDays)
	}
	return nil
}
