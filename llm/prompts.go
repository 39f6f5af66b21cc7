package llm

import (
	"fmt"
	"strings"

	"wealthai-simulator/helpers"
)

// AllocationLine is one position handed to the commentary prompt
type AllocationLine struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// PerformanceLine is one symbol's return versus the benchmark
type PerformanceLine struct {
	Symbol string  `json:"symbol"`
	Return float64 `json:"return"`
}

// ForecastLine summarizes one stored forecast
type ForecastLine struct {
	Symbol         string  `json:"symbol"`
	Model          string  `json:"model"`
	HorizonDays    int     `json:"horizon_days"`
	PredictedPrice float64 `json:"predicted_price"`
}

// CommentaryInput is everything the report generator knows about the user
type CommentaryInput struct {
	Goal        string
	Risk        string
	Budget      float64
	Allocation  []AllocationLine
	Performance []PerformanceLine
	Benchmark   PerformanceLine
	Forecasts   []ForecastLine
}

// BuildCommentaryPrompt renders the report inputs into a single user prompt
func BuildCommentaryPrompt(in CommentaryInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Investor profile: goal=%s, risk=%s, budget=%s.\n\n",
		in.Goal, in.Risk, helpers.FormatUSD(in.Budget))

	b.WriteString("Current allocation:\n")
	for _, a := range in.Allocation {
		fmt.Fprintf(&b, "- %s: %.1f%% (%s)\n", a.Symbol, a.Weight*100, helpers.FormatUSD(a.Value))
	}

	if len(in.Performance) > 0 {
		b.WriteString("\nPerformance over the tracked window:\n")
		for _, p := range in.Performance {
			fmt.Fprintf(&b, "- %s: %+.2f%%\n", p.Symbol, p.Return*100)
		}
		if in.Benchmark.Symbol != "" {
			fmt.Fprintf(&b, "Benchmark %s: %+.2f%%\n", in.Benchmark.Symbol, in.Benchmark.Return*100)
		}
	}

	if len(in.Forecasts) > 0 {
		b.WriteString("\nModel forecasts:\n")
		for _, f := range in.Forecasts {
			fmt.Fprintf(&b, "- %s (%s, %d days): %s\n",
				f.Symbol, f.Model, f.HorizonDays, helpers.FormatUSD(f.PredictedPrice))
		}
	}

	b.WriteString("\nWrite a short report: what the portfolio holds, how it compares to the benchmark, what the forecasts suggest, and one or two things a beginner should watch.")
	return b.String()
}

// FallbackCommentary produces a structured report when the LLM is disabled
// or unavailable
func FallbackCommentary(in CommentaryInput) string {
	var b strings.Builder

	b.WriteString("Draft portfolio report (generated without AI commentary).\n\n")

	fmt.Fprintf(&b, "Your %s-risk portfolio holds %d positions on a budget of %s.\n",
		in.Risk, len(in.Allocation), helpers.FormatUSD(in.Budget))

	if in.Risk == "high" {
		b.WriteString("Tips:\n- You chose a high risk profile: keep your micro-cap exposure limited to 10-20% of the budget.\n")
	} else {
		b.WriteString("Tips:\n- Keep a balanced core of ETFs and take limited risk in thematic positions.\n")
	}

	b.WriteString("Next steps:\n- Enable a quarterly automatic rebalance.\n- Review the paper-trade log after each submitted rebalance.\n")
	b.WriteString("\nThis is a learning simulation, not financial advice.")
	return b.String()
}
