// Command fetch_candles downloads candle history from Binance and saves it to
// a CSV file, and optionally into the journal database for replay runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"fxReversalBot/config"
	"fxReversalBot/internal/adapters/binancedata"
	"fxReversalBot/internal/adapters/logger"
	"fxReversalBot/internal/adapters/sqlite"
	"fxReversalBot/internal/utils"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	symbol := flag.String("symbol", "", "symbol to fetch (defaults to the configured symbol)")
	timeframe := flag.String("timeframe", "", "candle interval (defaults to the configured timeframe)")
	days := flag.Int("days", 30, "number of days of history to fetch")
	out := flag.String("out", "", "output CSV path (default data/<symbol>_<timeframe>_<range>.csv)")
	toDB := flag.Bool("db", false, "also save candles into the journal database")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	if *symbol == "" {
		*symbol = cfg.Symbol
	}
	if *timeframe == "" {
		*timeframe = cfg.Timeframe
	}

	// 3. Initialize Market Data Client
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

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -*days)

	appLogger.Info(ctx, "Fetching candles", map[string]interface{}{
		"symbol": *symbol, "timeframe": *timeframe, "from": start, "to": end,
	})
	candles, err := market.CandlesRange(ctx, *symbol, *timeframe, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching candles")
		log.Fatalf("Error fetching candles: %v", err)
	}
	appLogger.Info(ctx, "Fetched candles", map[string]interface{}{"count": len(candles)})

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s_to_%s.csv", *symbol, *timeframe, start.Format("20060102"), end.Format("20060102"))
	}
	if err := utils.WriteCandlesToCSV(candles, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved CSV", map[string]interface{}{"filename": filename})

	if *toDB {
		journal, err := sqlite.NewJournal(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			appLogger.Error(ctx, err, "Error opening journal database")
			log.Fatalf("Error opening journal database: %v", err)
		}
		defer journal.Close()

		if err := journal.SaveCandles(ctx, candles); err != nil {
			appLogger.Error(ctx, err, "Error saving candles to database")
			log.Fatalf("Error saving candles to database: %v", err)
		}
		appLogger.Info(ctx, "Saved candles to database", map[string]interface{}{"path": cfg.DBPath, "count": len(candles)})
	}
}
