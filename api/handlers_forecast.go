package api

import (
	"net/http"
	"strings"

	"wealthai-simulator/database"
	"wealthai-simulator/forecast"
)

// handleForecast fits a price model over the symbol's close history and
// stores the run, replacing any previous run with the same parameters.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))
	if symbol == "" {
		respondWithError(w, http.StatusBadRequest, "symbol is required", nil)
		return
	}

	model := r.URL.Query().Get("model")
	if model == "" {
		model = forecast.ModelLinear
	}
	minHorizon, maxHorizon := 1, 365
	horizon := getIntParam(r, "horizon", 30, &minHorizon, &maxHorizon)

	closes := s.closeSeries(r, symbol, 252)
	if len(closes) == 0 {
		respondWithError(w, http.StatusBadGateway, "No price history available", nil)
		return
	}

	result, err := forecast.Run(model, closes, horizon)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	row := &database.Forecast{
		Symbol:         symbol,
		HorizonDays:    horizon,
		Model:          result.Model,
		LastPrice:      result.LastPrice,
		PredictedPrice: result.Predicted,
		RMSE:           result.RMSE,
	}
	if err := s.repo.SaveForecast(row); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save forecast", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":       symbol,
		"horizon_days": horizon,
		"result":       result,
	})
}
