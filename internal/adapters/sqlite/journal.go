package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Journal implements ports.SignalJournal using SQLite. It also stores candle
// history for the fetch and replay tools; the two concerns share one database
// file so a replay run can read candles and write its audit trail in one place.
type Journal struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite journal.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewJournal opens (creating if needed) the journal database.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite journal")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/fx_reversal.db" // Default path
	}

	// The in-memory path has no parent dir to create.
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
			cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally, but the Go driver benefits from
	// limiting connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db, logger: cfg.Logger}

	if err := j.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Journal database ready", map[string]interface{}{"path": dbPath})

	return j, nil
}

// initializeSchema creates tables if they don't exist.
func (j *Journal) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		at TIMESTAMP NOT NULL,
		support_price REAL NOT NULL,
		support_touches INTEGER NOT NULL,
		resistance_price REAL NOT NULL,
		resistance_touches INTEGER NOT NULL,
		spread REAL NOT NULL,
		bearish_reversal INTEGER NOT NULL,
		macd_confirmed INTEGER NOT NULL,
		fvg_aligned INTEGER NOT NULL,
		spread_ok INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS order_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		signal_id INTEGER NULL,
		symbol TEXT NOT NULL,
		client_id TEXT NOT NULL,
		entry REAL NOT NULL,
		stop_loss REAL NOT NULL,
		take_profit REAL NOT NULL,
		lots TEXT NOT NULL,
		ticket INTEGER NOT NULL,
		ret_code INTEGER NOT NULL,
		accepted INTEGER NOT NULL,
		at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS candles (
		symbol TEXT NOT NULL,
		time TIMESTAMP NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		PRIMARY KEY (symbol, time)
	);

	CREATE INDEX IF NOT EXISTS idx_signals_symbol_at ON signals (symbol, at);
	CREATE INDEX IF NOT EXISTS idx_order_log_signal ON order_log (signal_id);
	`
	_, err := j.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		j.logger.Info(context.Background(), "Closing journal database connection")
		return j.db.Close()
	}
	return nil
}

// RecordSignal saves a confirmed signal and returns its assigned ID.
func (j *Journal) RecordSignal(ctx context.Context, sig domain.Signal) (int64, error) {
	const query = `
	INSERT INTO signals (symbol, at, support_price, support_touches,
	                     resistance_price, resistance_touches, spread,
	                     bearish_reversal, macd_confirmed, fvg_aligned, spread_ok)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := j.db.ExecContext(ctx, query,
		sig.Symbol, sig.At, sig.Support.Price, sig.Support.Touches,
		sig.Resistance.Price, sig.Resistance.Touches, sig.Spread,
		sig.BearishReversal, sig.MACDConfirmed, sig.FVGAligned, sig.SpreadOK)
	if err != nil {
		return 0, fmt.Errorf("failed to insert signal for symbol %s: %w", sig.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for signal %s: %w", sig.Symbol, err)
	}
	j.logger.Debug(ctx, "Signal recorded", map[string]interface{}{"signalID": id, "symbol": sig.Symbol})
	return id, nil
}

// RecordOrder saves the outcome of an order attempt.
func (j *Journal) RecordOrder(ctx context.Context, entry ports.OrderLogEntry) error {
	const query = `
	INSERT INTO order_log (signal_id, symbol, client_id, entry, stop_loss,
	                       take_profit, lots, ticket, ret_code, accepted, at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var signalID sql.NullInt64
	if entry.SignalID != 0 {
		signalID = sql.NullInt64{Int64: entry.SignalID, Valid: true}
	}

	_, err := j.db.ExecContext(ctx, query,
		signalID, entry.Symbol, entry.ClientID, entry.Entry, entry.StopLoss,
		entry.TakeProfit, entry.Lots.String(), entry.Ticket, int(entry.RetCode),
		entry.Accepted, entry.At)
	if err != nil {
		return fmt.Errorf("failed to insert order log for symbol %s: %w", entry.Symbol, err)
	}
	j.logger.Debug(ctx, "Order attempt recorded", map[string]interface{}{
		"symbol": entry.Symbol, "ticket": entry.Ticket, "accepted": entry.Accepted,
	})
	return nil
}

// RecentSignals returns the most recent recorded signals for a symbol, newest
// first, up to limit.
func (j *Journal) RecentSignals(ctx context.Context, symbol string, limit int) ([]domain.Signal, error) {
	const query = `
	SELECT symbol, at, support_price, support_touches,
	       resistance_price, resistance_touches, spread,
	       bearish_reversal, macd_confirmed, fvg_aligned, spread_ok
	FROM signals
	WHERE symbol = ? ORDER BY at DESC LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for symbol %s: %w", symbol, err)
	}
	defer rows.Close()

	signals := make([]domain.Signal, 0)
	for rows.Next() {
		var sig domain.Signal
		err := rows.Scan(
			&sig.Symbol, &sig.At, &sig.Support.Price, &sig.Support.Touches,
			&sig.Resistance.Price, &sig.Resistance.Touches, &sig.Spread,
			&sig.BearishReversal, &sig.MACDConfirmed, &sig.FVGAligned, &sig.SpreadOK)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal row: %w", err)
		}
		signals = append(signals, sig)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w", err)
	}
	return signals, nil
}

// SaveCandles upserts a batch of candles inside one transaction.
func (j *Journal) SaveCandles(ctx context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin candle transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
	INSERT INTO candles (symbol, time, open, high, low, close)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(symbol, time) DO UPDATE SET
		open = excluded.open, high = excluded.high,
		low = excluded.low, close = excluded.close`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare candle insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, c.Symbol, c.Time, c.Open, c.High, c.Low, c.Close); err != nil {
			return fmt.Errorf("failed to insert candle %s @ %s: %w", c.Symbol, c.Time, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candle transaction: %w", err)
	}
	j.logger.Debug(ctx, "Candles saved", map[string]interface{}{"count": len(candles)})
	return nil
}

// CandlesBetween returns stored candles for a symbol in [from, to],
// oldest first.
func (j *Journal) CandlesBetween(ctx context.Context, symbol string, from, to time.Time) ([]domain.Candle, error) {
	const query = `
	SELECT symbol, time, open, high, low, close
	FROM candles
	WHERE symbol = ? AND time >= ? AND time <= ?
	ORDER BY time ASC`

	rows, err := j.db.QueryContext(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles for symbol %s: %w", symbol, err)
	}
	defer rows.Close()

	candles := make([]domain.Candle, 0)
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Symbol, &c.Time, &c.Open, &c.High, &c.Low, &c.Close); err != nil {
			return nil, fmt.Errorf("failed to scan candle row: %w", err)
		}
		candles = append(candles, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candle rows: %w", err)
	}
	return candles, nil
}
