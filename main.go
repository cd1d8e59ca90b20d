package main

import (
	"context"
	"flag"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"

	"fxReversalBot/config"
	"fxReversalBot/internal/adapters/binancebroker"
	"fxReversalBot/internal/adapters/binancedata"
	"fxReversalBot/internal/adapters/logger"
	"fxReversalBot/internal/adapters/paperbroker"
	"fxReversalBot/internal/adapters/sqlite"
	"fxReversalBot/internal/app"
	"fxReversalBot/internal/metrics"
	"fxReversalBot/internal/orders"
	"fxReversalBot/internal/ports"
	"fxReversalBot/internal/risk"
	"fxReversalBot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	if cfg.LogFormat == "json" {
		zapLogger, err := logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger: %v", err)
		}
		defer zapLogger.Sync()
		appLogger = zapLogger
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Journal (Database Adapter)
	journal, err := sqlite.NewJournal(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize signal journal")
		log.Fatalf("FATAL: Failed to initialize signal journal: %v", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing signal journal")
		}
	}()

	// 4. Initialize Market Data (public endpoints, works without keys)
	market, err := binancedata.New(binancedata.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize market data client")
		log.Fatalf("FATAL: Failed to initialize market data client: %v", err)
	}

	limits, err := market.InstrumentLimits(ctx, cfg.Symbol)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to resolve instrument limits")
		log.Fatalf("FATAL: Failed to resolve instrument limits: %v", err)
	}

	// 5. Initialize Broker
	var broker ports.Broker
	switch cfg.Gateway {
	case "paper":
		broker, err = paperbroker.New(paperbroker.Config{
			StartingBalance: cfg.PaperBalance,
			Limits:          limits,
			Logger:          appLogger,
		})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize paper broker")
			log.Fatalf("FATAL: Failed to initialize paper broker: %v", err)
		}
	case "binance":
		broker, err = binancebroker.New(binancebroker.Config{
			APIKey:     cfg.APIKey,
			SecretKey:  cfg.SecretKey,
			Symbol:     cfg.Symbol,
			UseTestnet: cfg.IsTestnet,
			Logger:     appLogger,
		})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance broker")
			log.Fatalf("FATAL: Failed to initialize Binance broker: %v", err)
		}
	default:
		log.Fatalf("FATAL: Unknown gateway %q", cfg.Gateway)
	}
	appLogger.Info(ctx, "Gateway initialized", map[string]interface{}{"mode": cfg.Gateway})

	// 6. Initialize Risk Components
	dayStartBalance, err := broker.Balance(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to read the day-start balance")
		log.Fatalf("FATAL: Failed to read the day-start balance: %v", err)
	}
	governor, err := risk.NewGovernor(dayStartBalance, cfg.MaxDailyLoss, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize daily loss governor")
		log.Fatalf("FATAL: Failed to initialize daily loss governor: %v", err)
	}
	sizer, err := risk.NewSizer(cfg.MaxRiskPercent, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize position sizer")
		log.Fatalf("FATAL: Failed to initialize position sizer: %v", err)
	}

	// 7. Initialize Order Lifecycle Manager
	orderMgr, err := orders.New(orders.Config{
		Symbol:        cfg.Symbol,
		Magic:         cfg.Magic,
		RiskAmount:    cfg.RiskAmount,
		MinRiskReward: cfg.MinRiskReward,
		Comment:       "fxReversalBot",
	}, sizer, broker, journal, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize order manager")
		log.Fatalf("FATAL: Failed to initialize order manager: %v", err)
	}

	// 8. Initialize Signal Aggregator
	evaluator, err := strategy.New(strategy.Config{
		Symbol:          cfg.Symbol,
		LookbackPeriod:  cfg.LookbackPeriod,
		TolerancePoints: cfg.TouchTolerancePoints,
		Point:           limits.Point,
		BodyRatio:       cfg.BodyRatio,
		MaxSpread:       cfg.MaxSpread,
		Cooldown:        cfg.CooldownSeconds,
	}, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize signal aggregator")
		log.Fatalf("FATAL: Failed to initialize signal aggregator: %v", err)
	}

	// 9. Optional metrics endpoint
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			appLogger.Info(ctx, "Metrics endpoint listening", map[string]interface{}{"addr": cfg.MetricsAddr})
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				appLogger.Error(ctx, err, "Metrics endpoint stopped")
			}
		}()
	}

	// 10. Initialize and start the Engine
	engine, err := app.NewEngine(cfg, appLogger, market, broker, evaluator, journal, orderMgr, governor)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize engine")
		log.Fatalf("FATAL: Failed to initialize engine: %v", err)
	}

	if err := engine.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "Engine exited with error")
		log.Fatalf("FATAL: Engine exited with error: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}
