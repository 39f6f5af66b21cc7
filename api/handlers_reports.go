package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wealthai-simulator/cache"
	"wealthai-simulator/llm"
)

const (
	reportCacheTTL    = 6 * time.Hour
	reportCooldown    = 2 * time.Minute
	reportReturnsDays = 30
)

// buildCommentaryInput gathers everything the report needs: preferences,
// holdings, tracked returns versus the benchmark, and stored forecasts.
func (s *Server) buildCommentaryInput(r *http.Request) (llm.CommentaryInput, error) {
	in := llm.CommentaryInput{Goal: "growth", Risk: "medium"}

	pref, err := s.repo.LatestUserPref()
	if err != nil {
		return in, fmt.Errorf("load preferences: %w", err)
	}
	if pref != nil {
		in.Goal = pref.Goal
		in.Risk = pref.Risk
		in.Budget = pref.Budget
	}

	holdings, err := s.repo.GetHoldings()
	if err != nil {
		return in, fmt.Errorf("load holdings: %w", err)
	}

	symbols := make([]string, 0, len(holdings)+1)
	for _, h := range holdings {
		in.Allocation = append(in.Allocation, llm.AllocationLine{
			Symbol: h.Symbol,
			Weight: h.Weight,
			Value:  h.Qty * h.LastPrice,
		})
		symbols = append(symbols, h.Symbol)

		if forecasts, err := s.repo.GetForecasts(h.Symbol); err == nil && len(forecasts) > 0 {
			f := forecasts[0] // newest run
			in.Forecasts = append(in.Forecasts, llm.ForecastLine{
				Symbol:         f.Symbol,
				Model:          f.Model,
				HorizonDays:    f.HorizonDays,
				PredictedPrice: f.PredictedPrice,
			})
		}
	}

	benchmark := s.cfg.Broker.Benchmark
	if benchmark != "" {
		symbols = append(symbols, benchmark)
	}
	if len(symbols) > 0 {
		returns, err := s.reports.TrackReturns(r.Context(), symbols, reportReturnsDays)
		if err == nil {
			for _, ret := range returns {
				line := llm.PerformanceLine{Symbol: ret.Symbol, Return: ret.Return}
				if ret.Symbol == benchmark {
					in.Benchmark = line
				} else {
					in.Performance = append(in.Performance, line)
				}
			}
		}
	}

	return in, nil
}

// handleGenerateReport produces the portfolio commentary. Identical inputs
// are served from cache; a cooldown guards the LLM between cache misses.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	in, err := s.buildCommentaryInput(r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to assemble report inputs", err)
		return
	}

	prompt := llm.BuildCommentaryPrompt(in)
	hash := cache.InputHash(prompt)

	if text, ok := s.commentary.Get(r.Context(), hash); ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"report": text,
			"cached": true,
		})
		return
	}

	if !s.llmEnabled || s.commentary.InCooldown(r.Context()) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"report":   llm.FallbackCommentary(in),
			"cached":   false,
			"fallback": true,
		})
		return
	}

	text, err := s.llmClient.Generate(r.Context(), prompt)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"report":   llm.FallbackCommentary(in),
			"cached":   false,
			"fallback": true,
		})
		return
	}

	s.commentary.Set(r.Context(), hash, text, reportCacheTTL)
	s.commentary.SetCooldown(r.Context(), reportCooldown)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"report": text,
		"cached": false,
	})
}

// handleReportStream streams the commentary as Server-Sent Events
func (s *Server) handleReportStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := setupSSE(w)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	// Payloads are JSON-encoded so newlines in the report cannot break
	// the event framing
	send := func(event, data string) {
		encoded, _ := json.Marshal(data)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, encoded)
		flusher.Flush()
	}

	in, err := s.buildCommentaryInput(r)
	if err != nil {
		send("error", "failed to assemble report inputs")
		return
	}

	prompt := llm.BuildCommentaryPrompt(in)
	hash := cache.InputHash(prompt)

	if text, ok := s.commentary.Get(r.Context(), hash); ok {
		send("report", text)
		send("done", "cached")
		return
	}

	if !s.llmEnabled || s.commentary.InCooldown(r.Context()) {
		send("report", llm.FallbackCommentary(in))
		send("done", "fallback")
		return
	}

	var full string
	err = s.llmClient.GenerateStream(r.Context(), prompt, func(chunk string) error {
		full += chunk
		send("chunk", chunk)
		return nil
	})
	if err != nil {
		send("report", llm.FallbackCommentary(in))
		send("done", "fallback")
		return
	}

	s.commentary.Set(r.Context(), hash, full, reportCacheTTL)
	s.commentary.SetCooldown(r.Context(), reportCooldown)
	send("done", "generated")
}

// handleDailyMetrics returns the stored equity-versus-benchmark series
func (s *Server) handleDailyMetrics(w http.ResponseWriter, r *http.Request) {
	minDays, maxDays := 1, 365
	days := getIntParam(r, "days", 30, &minDays, &maxDays)

	points, err := s.reports.DailyMetrics(r.Context(), days)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch metrics", err)
		return
	}
	equity, err := s.reports.LatestEquity(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch metrics", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":          days,
		"latest_equity": equity,
		"metrics":       points,
	})
}
