package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"wealthai-simulator/api"
	"wealthai-simulator/broker"
	"wealthai-simulator/cache"
	"wealthai-simulator/config"
	"wealthai-simulator/database"
	"wealthai-simulator/database/reports"
	"wealthai-simulator/llm"
	"wealthai-simulator/marketdata"
	"wealthai-simulator/realtime"
	"wealthai-simulator/rebalance"
)

// App represents the main application
type App struct {
	config     *config.Config
	db         *database.Database
	reportsDB  *database.DB
	redis      *cache.RedisClient
	repo       *database.PortfolioRepository
	broker     *broker.Client
	sse        *realtime.Broker
	stream     *marketdata.ConnectionManager
	metricsRec *MetricsRecorder
	barRefresh *BarRefresher
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
		broker: broker.NewClient(
			cfg.Broker.TradeURL,
			cfg.Broker.DataURL,
			cfg.Broker.APIKey,
			cfg.Broker.SecretKey,
		),
	}
}

// Start starts the application
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Database connection
	fmt.Println("🗄️  Connecting to database...")

	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid database port: %w", err)
	}

	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	a.repo = database.NewPortfolioRepository(a.db)
	if err := a.repo.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// Separate raw connection for the reporting queries
	reportsDB, err := database.NewConnection(database.ConnConfig{
		Host:     a.config.DatabaseHost,
		Port:     a.config.DatabasePort,
		User:     a.config.DatabaseUser,
		Password: a.config.DatabasePassword,
		DBName:   a.config.DatabaseName,
	})
	if err != nil {
		return fmt.Errorf("reporting connection failed: %w", err)
	}
	a.reportsDB = reportsDB
	reportsRepo := reports.NewRepository(reportsDB.GetConn())

	// 2. Redis connection
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)
	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Caching disabled.")
	} else {
		a.redis = redisClient
	}
	quoteCache := cache.NewQuoteCache(a.redis)
	commentaryCache := cache.NewCommentaryCache(a.redis)

	// 3. Realtime broker for SSE clients
	a.sse = realtime.NewBroker()
	go a.sse.Run()

	// 4. LLM client if enabled
	var llmClient *llm.Client
	if a.config.LLM.Enabled {
		llmClient = llm.NewClient(a.config.LLM.Endpoint, a.config.LLM.APIKey, a.config.LLM.Model)
		log.Printf("✅ LLM commentary ENABLED (Model: %s)", a.config.LLM.Model)
	} else {
		log.Println("ℹ️  LLM commentary DISABLED, reports use the fallback text")
	}

	// 5. Rebalance submission service
	gateway := &paperGateway{client: a.broker}
	bench := &barBenchmark{client: a.broker}
	trader := rebalance.NewService(a.config.Guardrails, gateway, a.repo, bench, a.config.Broker.Benchmark)

	// 6. API server
	apiServer := api.NewServer(a.config, a.repo, reportsRepo, a.broker, quoteCache, commentaryCache, a.sse, llmClient)
	apiServer.SetTrader(trader)
	apiServer.SetTickerRefresher(NewTickerRefresher(a.repo, a.config.Tickers))

	go func() {
		if err := apiServer.Start(a.config.ServerPort); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	// 7. Background trackers
	a.metricsRec = NewMetricsRecorder(a.repo, a.broker, a.config.Broker.Benchmark, 6*time.Hour)
	go a.metricsRec.Start()

	a.barRefresh = NewBarRefresher(a.repo, a.broker, a.config.Broker.Benchmark, 12*time.Hour)
	go a.barRefresh.Start()

	var wg sync.WaitGroup

	// 8. Market data stream feeding the quote cache and SSE clients
	if a.config.Broker.StreamURL != "" && a.config.Broker.APIKey != "" {
		a.stream = marketdata.NewConnectionManager(
			a.config.Broker.StreamURL,
			a.config.Broker.APIKey,
			a.config.Broker.SecretKey,
			a.watchlist(),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.stream.Run(ctx, func(q marketdata.Quote) {
				if err := quoteCache.Put(ctx, cache.Quote{
					Symbol:    q.Symbol,
					Price:     q.Price,
					Timestamp: q.Timestamp,
				}); err != nil {
					log.Printf("⚠️  Quote cache put failed: %v", err)
				}
				a.sse.Broadcast("quote", q)
			})
		}()
	} else {
		log.Println("ℹ️  Market data stream disabled, quotes come from REST snapshots only")
	}

	// 9. Wait for interrupt and perform graceful shutdown
	err = a.gracefulShutdown(cancel)
	wg.Wait()
	return err
}

// watchlist is the stream subscription: held symbols plus the benchmark
func (a *App) watchlist() []string {
	seen := map[string]bool{}
	var symbols []string

	holdings, err := a.repo.GetHoldings()
	if err != nil {
		log.Printf("⚠️  Failed to load holdings for the stream watchlist: %v", err)
	}
	for _, h := range holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}
	if b := a.config.Broker.Benchmark; b != "" && !seen[b] {
		symbols = append(symbols, b)
	}
	return symbols
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown(cancel context.CancelFunc) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	shutdownComplete := make(chan struct{})
	go func() {
		if a.metricsRec != nil {
			fmt.Println("📊 Stopping metrics recorder...")
			a.metricsRec.Stop()
		}
		if a.barRefresh != nil {
			fmt.Println("🔄 Stopping bar refresher...")
			a.barRefresh.Stop()
		}

		if a.stream != nil {
			fmt.Println("📡 Closing market data stream...")
			if err := a.stream.Close(); err != nil {
				log.Printf("Error closing market data stream: %v", err)
			} else {
				fmt.Println("✅ Market data stream closed")
			}
		}

		if a.reportsDB != nil {
			if err := a.reportsDB.Close(); err != nil {
				log.Printf("Error closing reporting connection: %v", err)
			}
		}
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			} else {
				fmt.Println("✅ Database connection closed")
			}
		}
		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Printf("Error closing redis: %v", err)
			} else {
				fmt.Println("✅ Redis connection closed")
			}
		}

		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		fmt.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}
