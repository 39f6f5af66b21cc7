package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"wealthai-simulator/broker"
	"wealthai-simulator/cache"
	"wealthai-simulator/config"
	"wealthai-simulator/database"
	"wealthai-simulator/database/reports"
	"wealthai-simulator/llm"
	"wealthai-simulator/realtime"
	"wealthai-simulator/rebalance"
)

// Server handles HTTP API requests
type Server struct {
	cfg        *config.Config
	repo       *database.PortfolioRepository
	reports    *reports.Repository
	broker     *broker.Client
	quotes     *cache.QuoteCache
	commentary *cache.CommentaryCache
	sse        *realtime.Broker
	llmClient  *llm.Client
	llmEnabled bool
	evaluator  *rebalance.Evaluator
	trader     *rebalance.Service
	refresher  TickerRefresher
}

// TickerRefresher re-fetches the index constituent universe
type TickerRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// NewServer creates a new API server instance
func NewServer(cfg *config.Config, repo *database.PortfolioRepository, rpt *reports.Repository, brk *broker.Client, quotes *cache.QuoteCache, commentary *cache.CommentaryCache, sse *realtime.Broker, llmClient *llm.Client) *Server {
	return &Server{
		cfg:        cfg,
		repo:       repo,
		reports:    rpt,
		broker:     brk,
		quotes:     quotes,
		commentary: commentary,
		sse:        sse,
		llmClient:  llmClient,
		llmEnabled: cfg.LLM.Enabled,
		evaluator:  rebalance.NewEvaluator(cfg.Guardrails),
	}
}

// SetTrader sets the rebalance submission service
func (s *Server) SetTrader(trader *rebalance.Service) {
	s.trader = trader
}

// SetTickerRefresher sets the ticker universe refresher
func (s *Server) SetTickerRefresher(refresher TickerRefresher) {
	s.refresher = refresher
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	// Register routes
	mux.Handle("GET /api/events", s.sse) // SSE endpoint

	// Onboarding and portfolio routes
	mux.HandleFunc("POST /api/onboard", s.handleOnboard)
	mux.HandleFunc("GET /api/portfolio/holdings", s.handleGetHoldings)
	mux.HandleFunc("GET /api/portfolio/positions", s.handleGetPositions)
	mux.HandleFunc("POST /api/portfolio/build", s.handleBuildPortfolio)
	mux.HandleFunc("POST /api/portfolio/momentum", s.buildMomentum)
	mux.HandleFunc("GET /api/portfolio/track", s.handleTrackReturns)

	// Rebalance routes
	mux.HandleFunc("POST /api/portfolio/rebalance", s.handleRebalance)

	// Forecast routes
	mux.HandleFunc("GET /api/forecast/{symbol}", s.handleForecast)

	// Report routes (LLM)
	mux.HandleFunc("POST /api/reports/generate", s.handleGenerateReport)
	mux.HandleFunc("GET /api/reports/stream", s.handleReportStream)
	mux.HandleFunc("GET /api/metrics/daily", s.handleDailyMetrics)

	// Universe and journal routes
	mux.HandleFunc("GET /api/tickers", s.handleGetTickers)
	mux.HandleFunc("POST /api/tickers/refresh", s.handleRefreshTickers)
	mux.HandleFunc("GET /api/trades", s.handleGetTrades)

	mux.HandleFunc("GET /health", s.handleHealth)

	// Add middleware
	handler := s.corsMiddleware(s.loggingMiddleware(s.authMiddleware(mux)))

	serverAddr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("🚀 API Server starting on %s", serverAddr)
	return http.ListenAndServe(serverAddr, handler)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// authMiddleware checks the static API key on every /api route.
// The health check stays open for load balancers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || s.cfg.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key") // SSE clients cannot set headers
		}
		if key != s.cfg.APIKey {
			respondWithError(w, http.StatusUnauthorized, "Invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handlers are distributed across multiple files:
// - handlers_portfolio.go: onboarding, holdings, momentum, tracking
// - handlers_rebalance.go: guardrail evaluation and order submission
// - handlers_forecast.go: price forecasts
// - handlers_reports.go: LLM commentary and daily metrics
// - handlers_config.go: ticker universe, trade journal, health check
