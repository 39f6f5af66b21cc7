package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// API server configuration
	ServerPort int
	APIKey     string

	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// Brokerage configuration
	Broker BrokerConfig

	// LLM configuration
	LLM LLMConfig

	// Ticker universe sources
	Tickers TickerConfig

	// Rebalance guardrails
	Guardrails GuardrailConfig
}

// BrokerConfig holds paper-brokerage API configuration
type BrokerConfig struct {
	APIKey    string
	SecretKey string
	TradeURL  string // account/orders/positions/clock API
	DataURL   string // snapshots/bars API
	StreamURL string // market data websocket
	Benchmark string // benchmark symbol for daily metrics
}

// LLMConfig holds LLM service configuration
type LLMConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Model    string
}

// TickerConfig holds index constituent sources (CSV over HTTP)
type TickerConfig struct {
	SP500URL     string
	Nasdaq100URL string
}

// GuardrailConfig holds the risk limits applied to every rebalance.
// It is passed explicitly into the evaluator; nothing reads the
// environment past startup.
type GuardrailConfig struct {
	MaxWeightStock         float64 // max portfolio weight for a single stock
	MaxWeightETF           float64 // max portfolio weight for a single ETF
	MaxWeightMicrocapTotal float64 // aggregate cap across all micro-cap names
	MinPrice               float64 // reject securities priced below this
	MinADVUSD              float64 // reject securities below this avg dollar volume (0 disables)
	CashBuffer             float64 // fraction of budget kept uninvested
	MarketHoursOnly        bool    // refuse submission while the market is closed
	AllowShorts            bool    // permit SELLs beyond the held quantity
	MaxOrderUSD            float64 // per-order notional cap
	MaxPositionUSD         float64 // resulting per-position value cap
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		APIKey:     getEnvOrDefault("API_PASSWORD", "SuperSecret123"),

		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "wealthai"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "wealthai"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "wealthai123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		// Brokerage configuration
		Broker: BrokerConfig{
			APIKey:    os.Getenv("BROKER_API_KEY"),
			SecretKey: os.Getenv("BROKER_SECRET_KEY"),
			TradeURL:  getEnvOrDefault("BROKER_BASE_URL", "https://paper-api.alpaca.markets"),
			DataURL:   getEnvOrDefault("BROKER_DATA_URL", "https://data.alpaca.markets"),
			StreamURL: getEnvOrDefault("BROKER_STREAM_URL", "wss://stream.data.alpaca.markets/v2/iex"),
			Benchmark: getEnvOrDefault("BENCHMARK_SYMBOL", "SPY"),
		},

		// LLM configuration
		LLM: LLMConfig{
			Enabled:  getEnvBool("LLM_ENABLED", false),
			Endpoint: getEnvOrDefault("LLM_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:   getEnvOrDefault("LLM_API_KEY", ""),
			Model:    getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		},

		// Ticker universe sources
		Tickers: TickerConfig{
			SP500URL:     getEnvOrDefault("TICKERS_SP500_URL", "https://datahub.io/core/s-and-p-500-companies/r/constituents.csv"),
			Nasdaq100URL: getEnvOrDefault("TICKERS_NASDAQ100_URL", ""),
		},

		// Rebalance guardrails
		Guardrails: GuardrailConfig{
			MaxWeightStock:         getEnvFloat("MAX_WEIGHT_STOCK", 0.20),
			MaxWeightETF:           getEnvFloat("MAX_WEIGHT_ETF", 1.00),
			MaxWeightMicrocapTotal: getEnvFloat("MAX_WEIGHT_MICROCAP_TOTAL", 0.10),
			MinPrice:               getEnvFloat("MIN_PRICE", 1.00),
			MinADVUSD:              getEnvFloat("MIN_ADV_USD", 0),
			CashBuffer:             getEnvFloat("CASH_BUFFER", 0.05),
			MarketHoursOnly:        getEnvBool("MARKET_HOURS_ONLY", true),
			AllowShorts:            getEnvBool("ALLOW_SHORTS", false),
			MaxOrderUSD:            getEnvFloat("MAX_ORDER_USD", 10000),
			MaxPositionUSD:         getEnvFloat("MAX_POSITION_USD", 25000),
		},
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvBool gets environment variable as bool or returns default value
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
