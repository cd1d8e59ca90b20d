package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fxReversalBot/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Trading Parameters
	Symbol          string
	RiskAmount      float64 // Fixed monetary risk budget per trade
	MaxDailyLoss    float64 // Daily drawdown that disables trading until restart
	MinRiskReward   float64 // Take-profit distance as a multiple of the zone height
	MaxRiskPercent  float64 // Equity percentage cap on the loss at stop
	Magic           int64   // Tag identifying this strategy's orders
	CooldownSeconds int     // Minimum seconds between signal emissions

	// Analysis Parameters
	Timeframe            string  // Candle interval, e.g. "1m"
	LookbackPeriod       int     // Zone scan window
	TouchTolerancePoints int     // Zone touch tolerance in price increments
	BodyRatio            float64 // Reversal body dominance factor
	MaxSpread            float64 // Spread ceiling in price units
	PollInterval         time.Duration

	// Gateway
	Gateway      string // "paper" or "binance"
	PaperBalance float64
	APIKey       string
	SecretKey    string
	IsTestnet    bool

	// Database
	DBPath string

	// Observability
	LogLevel    logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat   string          // "text" or "json"
	MetricsAddr string          // Empty disables the metrics endpoint
}

// fileConfig mirrors the optional YAML configuration file. Absent keys keep
// the defaults the struct is pre-filled with.
type fileConfig struct {
	Trading struct {
		Symbol          string  `yaml:"symbol"`
		RiskAmount      float64 `yaml:"risk_amount"`
		MaxDailyLoss    float64 `yaml:"max_daily_loss"`
		MinRiskReward   float64 `yaml:"min_risk_reward"`
		MaxRiskPercent  float64 `yaml:"max_risk_percent"`
		Magic           int64   `yaml:"magic"`
		CooldownSeconds int     `yaml:"cooldown_seconds"`
	} `yaml:"trading"`
	Analysis struct {
		Timeframe            string  `yaml:"timeframe"`
		LookbackPeriod       int     `yaml:"lookback_period"`
		TouchTolerancePoints int     `yaml:"touch_tolerance_points"`
		BodyRatio            float64 `yaml:"body_ratio"`
		MaxSpread            float64 `yaml:"max_spread"`
		PollIntervalSeconds  int     `yaml:"poll_interval_seconds"`
	} `yaml:"analysis"`
	Gateway struct {
		Mode         string  `yaml:"mode"`
		PaperBalance float64 `yaml:"paper_balance"`
		Testnet      bool    `yaml:"testnet"`
	} `yaml:"gateway"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Observability struct {
		LogLevel    string `yaml:"log_level"`
		LogFormat   string `yaml:"log_format"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"observability"`
}

// LoadConfig loads configuration from an optional YAML file and environment
// variables (.env supported). Environment variables win over the file, the
// file wins over defaults.
func LoadConfig(path string) (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	fc := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Trading Parameters
	cfg.Symbol = getEnv("SYMBOL", fc.Trading.Symbol)
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	cfg.RiskAmount, err = getEnvAsFloatRequired("RISK_AMOUNT", fc.Trading.RiskAmount)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RISK_AMOUNT: %v", err))
	} else if cfg.RiskAmount <= 0 {
		errs = append(errs, "RISK_AMOUNT must be positive")
	}

	cfg.MaxDailyLoss, err = getEnvAsFloatRequired("MAX_DAILY_LOSS", fc.Trading.MaxDailyLoss)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_DAILY_LOSS: %v", err))
	} else if cfg.MaxDailyLoss <= 0 {
		errs = append(errs, "MAX_DAILY_LOSS must be positive")
	}

	cfg.MinRiskReward, err = getEnvAsFloatRequired("MIN_RISK_REWARD", fc.Trading.MinRiskReward)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_RISK_REWARD: %v", err))
	} else if cfg.MinRiskReward <= 0 {
		errs = append(errs, "MIN_RISK_REWARD must be positive")
	}

	cfg.MaxRiskPercent, err = getEnvAsFloatRequired("MAX_RISK_PERCENT", fc.Trading.MaxRiskPercent)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_RISK_PERCENT: %v", err))
	} else if cfg.MaxRiskPercent <= 0 || cfg.MaxRiskPercent > 100 {
		errs = append(errs, "MAX_RISK_PERCENT must be between 0 and 100")
	}

	magic, err := getEnvAsIntRequired("MAGIC", int(fc.Trading.Magic))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAGIC: %v", err))
	} else if magic <= 0 {
		errs = append(errs, "MAGIC must be positive")
	}
	cfg.Magic = int64(magic)

	cfg.CooldownSeconds, err = getEnvAsIntRequired("COOLDOWN_SECONDS", fc.Trading.CooldownSeconds)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid COOLDOWN_SECONDS: %v", err))
	} else if cfg.CooldownSeconds <= 0 {
		errs = append(errs, "COOLDOWN_SECONDS must be positive")
	}

	// Analysis Parameters
	cfg.Timeframe = getEnv("TIMEFRAME", fc.Analysis.Timeframe)
	if cfg.Timeframe == "" {
		errs = append(errs, "TIMEFRAME must be set")
	}

	cfg.LookbackPeriod = getEnvAsInt("LOOKBACK_PERIOD", fc.Analysis.LookbackPeriod)
	if cfg.LookbackPeriod <= 0 {
		errs = append(errs, "LOOKBACK_PERIOD must be positive")
	}

	cfg.TouchTolerancePoints = getEnvAsInt("TOUCH_TOLERANCE_POINTS", fc.Analysis.TouchTolerancePoints)
	if cfg.TouchTolerancePoints <= 0 {
		errs = append(errs, "TOUCH_TOLERANCE_POINTS must be positive")
	}

	cfg.BodyRatio = getEnvAsFloat("BODY_RATIO", fc.Analysis.BodyRatio)
	if cfg.BodyRatio <= 0 {
		errs = append(errs, "BODY_RATIO must be positive")
	}

	cfg.MaxSpread, err = getEnvAsFloatRequired("MAX_SPREAD", fc.Analysis.MaxSpread)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_SPREAD: %v", err))
	} else if cfg.MaxSpread <= 0 {
		errs = append(errs, "MAX_SPREAD must be positive")
	}

	pollSeconds := getEnvAsInt("POLL_INTERVAL_SECONDS", fc.Analysis.PollIntervalSeconds)
	if pollSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	// Gateway
	cfg.Gateway = strings.ToLower(getEnv("GATEWAY", fc.Gateway.Mode))
	if cfg.Gateway != "paper" && cfg.Gateway != "binance" {
		errs = append(errs, fmt.Sprintf("GATEWAY must be 'paper' or 'binance', got %q", cfg.Gateway))
	}

	cfg.PaperBalance, err = getEnvAsFloatRequired("PAPER_BALANCE", fc.Gateway.PaperBalance)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PAPER_BALANCE: %v", err))
	} else if cfg.Gateway == "paper" && cfg.PaperBalance <= 0 {
		errs = append(errs, "PAPER_BALANCE must be positive")
	}

	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", fc.Gateway.Testnet)

	// Keys are only required when market data comes from the live gateway
	if cfg.Gateway == "binance" {
		if cfg.APIKey == "" {
			errs = append(errs, "BINANCE_API_KEY must be set for the binance gateway")
		}
		if cfg.SecretKey == "" {
			errs = append(errs, "BINANCE_API_SECRET must be set for the binance gateway")
		}
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", fc.Storage.DBPath)
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Observability
	logLevelStr := getEnv("LOG_LEVEL", fc.Observability.LogLevel)
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", fc.Observability.LogFormat))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be 'text' or 'json', got %q", cfg.LogFormat))
	}

	cfg.MetricsAddr = getEnv("METRICS_ADDR", fc.Observability.MetricsAddr)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// defaults returns the built-in configuration the YAML file and environment
// override.
func defaults() fileConfig {
	var fc fileConfig
	fc.Trading.Symbol = "EURUSD"
	fc.Trading.RiskAmount = 50
	fc.Trading.MaxDailyLoss = 200
	fc.Trading.MinRiskReward = 2.0
	fc.Trading.MaxRiskPercent = 5
	fc.Trading.Magic = 234567
	fc.Trading.CooldownSeconds = 60
	fc.Analysis.Timeframe = "1m"
	fc.Analysis.LookbackPeriod = 20
	fc.Analysis.TouchTolerancePoints = 5
	fc.Analysis.BodyRatio = 1.5
	fc.Analysis.MaxSpread = 0.0003
	fc.Analysis.PollIntervalSeconds = 5
	fc.Gateway.Mode = "paper"
	fc.Gateway.PaperBalance = 10000
	fc.Gateway.Testnet = true
	fc.Storage.DBPath = "./data/fx_reversal.db"
	fc.Observability.LogLevel = "INFO"
	fc.Observability.LogFormat = "text"
	fc.Observability.MetricsAddr = ""
	return fc
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Log warning? For non-required fields, default is often acceptable.
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
