// Command replay runs the decision engine over recorded candles against the
// paper broker, then prints the resulting account state. Candles come from a
// CSV file written by fetch_candles, or from the journal database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"fxReversalBot/config"
	"fxReversalBot/internal/adapters/logger"
	"fxReversalBot/internal/adapters/paperbroker"
	"fxReversalBot/internal/adapters/replaydata"
	"fxReversalBot/internal/adapters/sqlite"
	"fxReversalBot/internal/app"
	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/orders"
	"fxReversalBot/internal/risk"
	"fxReversalBot/internal/strategy"
	"fxReversalBot/internal/utils"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	candlesPath := flag.String("candles", "", "CSV file with replay candles (overrides the database)")
	from := flag.String("from", "", "database replay start, RFC3339 (with -candles unset)")
	to := flag.String("to", "", "database replay end, RFC3339 (with -candles unset)")
	spread := flag.Float64("spread", 0.0002, "synthetic bid/ask spread in price units")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 2. Open the journal: it supplies candles when no CSV is given and
	// records the replayed decisions either way.
	journal, err := sqlite.NewJournal(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to open journal database")
		log.Fatalf("FATAL: Failed to open journal database: %v", err)
	}
	defer journal.Close()

	// 3. Load candles
	var candles []domain.Candle
	if *candlesPath != "" {
		candles, err = utils.ReadCandlesFromCSV(*candlesPath)
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to read candle CSV")
			log.Fatalf("FATAL: Failed to read candle CSV: %v", err)
		}
	} else {
		start, end, err := parseRange(*from, *to)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		candles, err = journal.CandlesBetween(ctx, cfg.Symbol, start, end)
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to load candles from database")
			log.Fatalf("FATAL: Failed to load candles from database: %v", err)
		}
	}
	if len(candles) == 0 {
		log.Fatalf("FATAL: No candles to replay")
	}
	appLogger.Info(ctx, "Loaded replay candles", map[string]interface{}{"count": len(candles)})

	// Replay instruments share fixed FX-style quantization constants.
	limits := domain.InstrumentLimits{
		TickValue: 1.0,
		TickSize:  0.0001,
		Point:     0.0001,
		MinLot:    0.01,
		MaxLot:    100.0,
		LotStep:   0.01,
	}

	// 4. Build the replay feed and paper broker
	feed, err := replaydata.New(replaydata.Config{
		Symbol:  cfg.Symbol,
		Limits:  limits,
		Spread:  *spread,
		Candles: candles,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to build replay feed")
		log.Fatalf("FATAL: Failed to build replay feed: %v", err)
	}

	broker, err := paperbroker.New(paperbroker.Config{
		StartingBalance: cfg.PaperBalance,
		Limits:          limits,
		Logger:          appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to build paper broker")
		log.Fatalf("FATAL: Failed to build paper broker: %v", err)
	}

	// 5. Build the decision components
	dayStart, err := broker.Balance(ctx)
	if err != nil {
		log.Fatalf("FATAL: Failed to read the paper balance: %v", err)
	}
	governor, err := risk.NewGovernor(dayStart, cfg.MaxDailyLoss, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to build governor: %v", err)
	}
	sizer, err := risk.NewSizer(cfg.MaxRiskPercent, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to build sizer: %v", err)
	}
	orderMgr, err := orders.New(orders.Config{
		Symbol:        cfg.Symbol,
		Magic:         cfg.Magic,
		RiskAmount:    cfg.RiskAmount,
		MinRiskReward: cfg.MinRiskReward,
		Comment:       "replay",
	}, sizer, broker, journal, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to build order manager: %v", err)
	}
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
		log.Fatalf("FATAL: Failed to build signal aggregator: %v", err)
	}

	engine, err := app.NewEngine(cfg, appLogger, feed, broker, evaluator, journal, orderMgr, governor)
	if err != nil {
		log.Fatalf("FATAL: Failed to build engine: %v", err)
	}

	// 6. Drive the replay
	if ok := feed.Advance(); !ok {
		log.Fatalf("FATAL: Replay feed is empty")
	}
	if err := engine.Prepare(ctx); err != nil {
		appLogger.Error(ctx, err, "FATAL: Engine preparation failed")
		log.Fatalf("FATAL: Engine preparation failed: %v", err)
	}

	steps := 0
	for {
		candle, ok := feed.Current()
		if !ok {
			break
		}
		// The high fills limit entries and triggers stops, the low triggers
		// targets. Highs first so a bar spanning both resolves pessimistically.
		broker.OnTick(ctx, candle.High, candle.Time)
		broker.OnTick(ctx, candle.Low, candle.Time)

		engine.Step(ctx)
		steps++

		if !feed.Advance() {
			break
		}
	}

	balance, _ := broker.Balance(ctx)
	equity, _ := broker.Equity(ctx)
	positions, _ := broker.OpenPositions(ctx, cfg.Symbol, cfg.Magic)

	fmt.Printf("Replay finished: %d steps over %d candles\n", steps, len(candles))
	fmt.Printf("Final balance: %s\n", balance)
	fmt.Printf("Final equity:  %s\n", equity)
	fmt.Printf("Open positions: %d\n", len(positions))
	if governor.Tripped() {
		fmt.Println("Daily loss governor tripped during the replay")
	}
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	if from == "" || to == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("either -candles or both -from and -to are required")
	}
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -from %q: %w", from, err)
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -to %q: %w", to, err)
	}
	return start, end, nil
}
