// Package app wires the analysis, risk and order components into the cycle
// loop that drives the bot.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fxReversalBot/config"
	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/metrics"
	"fxReversalBot/internal/orders"
	"fxReversalBot/internal/ports"
	"fxReversalBot/internal/risk"
	"fxReversalBot/internal/strategy/indicators"
)

// candleHistory is the number of candles fetched per cycle. It covers the
// zone scan window plus the MACD warmup with room to spare.
const candleHistory = 100

// Engine orchestrates the evaluation cycles: gather market state, run the
// signal evaluator, size and submit the order, manage open positions. Every
// fault inside a cycle degrades to "do nothing this cycle".
type Engine struct {
	cfg       *config.Config
	logger    ports.Logger
	market    ports.MarketData
	broker    ports.Broker
	evaluator ports.SignalEvaluator
	journal   ports.SignalJournal
	orders    *orders.Manager
	governor  *risk.Governor

	limits domain.InstrumentLimits

	// State fields
	mu           sync.Mutex // Protects access to state fields below
	lastSignalAt time.Time  // Throttle timestamp, updated only on accepted orders
	tripCounted  bool
}

// NewEngine creates the application engine.
func NewEngine(
	cfg *config.Config,
	logger ports.Logger,
	market ports.MarketData,
	broker ports.Broker,
	evaluator ports.SignalEvaluator,
	journal ports.SignalJournal,
	orderMgr *orders.Manager,
	governor *risk.Governor,
) (*Engine, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || market == nil || broker == nil ||
		evaluator == nil || journal == nil || orderMgr == nil || governor == nil {
		return nil, fmt.Errorf("missing required dependencies for Engine")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("configuration PollInterval must be positive")
	}

	return &Engine{
		cfg:       cfg,
		logger:    logger,
		market:    market,
		broker:    broker,
		evaluator: evaluator,
		journal:   journal,
		orders:    orderMgr,
		governor:  governor,
	}, nil
}

// Start validates the account and instrument, then runs evaluation cycles
// until the context is cancelled or a termination signal arrives.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info(ctx, "Starting engine...", map[string]interface{}{
		"symbol":    e.cfg.Symbol,
		"timeframe": e.cfg.Timeframe,
		"gateway":   e.cfg.Gateway,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		e.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	if err := e.Prepare(ctx); err != nil {
		return err
	}

	// --- Main Loop ---
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info(ctx, "Engine stopped.")
			return nil
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// Prepare checks account readiness and validates the instrument. Start calls
// it before the first cycle; the replay tool calls it directly.
func (e *Engine) Prepare(ctx context.Context) error {
	// 1. Account readiness: the balance must be readable and positive before
	// any cycle runs.
	balance, err := e.broker.Balance(ctx)
	if err != nil {
		e.logger.Error(ctx, err, "Failed to read account balance")
		return fmt.Errorf("account readiness check failed: %w", err)
	}
	if !balance.IsPositive() {
		return fmt.Errorf("account balance %s is not positive", balance)
	}
	e.logger.Info(ctx, "Account ready", map[string]interface{}{
		"balance":         balance,
		"dayStartBalance": e.governor.DayStartBalance(),
	})

	// 2. Symbol validation: the instrument must exist and carry usable
	// quantization constants.
	limits, err := e.market.InstrumentLimits(ctx, e.cfg.Symbol)
	if err != nil {
		e.logger.Error(ctx, err, "Failed to load instrument limits", map[string]interface{}{"symbol": e.cfg.Symbol})
		return fmt.Errorf("symbol validation failed: %w", err)
	}
	if !limits.Validate() {
		return fmt.Errorf("instrument limits for %s are unusable: %+v", e.cfg.Symbol, limits)
	}
	e.limits = limits
	e.logger.Info(ctx, "Instrument validated", map[string]interface{}{
		"symbol":  e.cfg.Symbol,
		"point":   limits.Point,
		"minLot":  limits.MinLot,
		"maxLot":  limits.MaxLot,
		"lotStep": limits.LotStep,
	})
	return nil
}

// Step runs one evaluation cycle. The replay tool drives cycles from recorded
// data instead of the ticker, so this is exported.
func (e *Engine) Step(ctx context.Context) {
	e.runCycle(ctx)
}

// runCycle executes one evaluation cycle. Errors are logged and swallowed:
// the next tick gets a fresh attempt.
func (e *Engine) runCycle(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	op := "runCycle"

	balance, err := e.broker.Balance(ctx)
	if err != nil {
		e.logger.Error(ctx, err, op+": Failed to read balance")
		metrics.IncCycle(metrics.OutcomeError)
		return
	}
	metrics.SetAccountBalance(balance.InexactFloat64())

	if !e.governor.Allowed(ctx, balance) {
		if !e.tripCounted {
			metrics.IncGovernorTrip()
			e.tripCounted = true
		}
		metrics.IncCycle(metrics.OutcomeSkipped)
		return
	}

	quote, err := e.market.Quote(ctx, e.cfg.Symbol)
	if err != nil {
		e.logger.Error(ctx, err, op+": Failed to read quote")
		metrics.IncCycle(metrics.OutcomeError)
		return
	}

	// Manage open positions before looking for new entries; shorts close at
	// the ask.
	moved, err := e.orders.ManageBreakeven(ctx, quote.Ask)
	if err != nil {
		e.logger.Error(ctx, err, op+": Breakeven management failed")
	}
	metrics.AddBreakevenMoves(moved)

	candles, err := e.market.Candles(ctx, e.cfg.Symbol, e.cfg.Timeframe, candleHistory)
	if err != nil {
		e.logger.Error(ctx, err, op+": Failed to load candles")
		metrics.IncCycle(metrics.OutcomeError)
		return
	}
	series := domain.SeriesFromChronological(candles)
	if len(series) < e.evaluator.MinCandles() {
		e.logger.Debug(ctx, op+": Not enough candles yet", map[string]interface{}{
			"available": len(series), "required": e.evaluator.MinCandles(),
		})
		metrics.IncCycle(metrics.OutcomeSkipped)
		return
	}

	// A MACD failure is not fatal: empty lines make the filter fail closed.
	macdMain, macdSignal, err := indicators.MACD(series.Closes())
	if err != nil {
		e.logger.Debug(ctx, op+": MACD unavailable", map[string]interface{}{"reason": err.Error()})
	}

	positions, err := e.broker.OpenPositions(ctx, e.cfg.Symbol, e.cfg.Magic)
	if err != nil {
		e.logger.Error(ctx, err, op+": Failed to list open positions")
		metrics.IncCycle(metrics.OutcomeError)
		return
	}

	// The quote timestamp is the cycle clock: in replay it carries market
	// time, live it is the moment the quote arrived.
	now := quote.At
	if now.IsZero() {
		now = time.Now().UTC()
	}
	sig, ok := e.evaluator.Evaluate(ctx, ports.EvaluationInput{
		Series:        series,
		MACDMain:      macdMain,
		MACDSignal:    macdSignal,
		Spread:        quote.Spread(),
		Now:           now,
		LastSignalAt:  e.lastSignalAt,
		OpenPositions: len(positions),
	})
	if !ok {
		metrics.IncCycle(metrics.OutcomeNoSignal)
		return
	}
	metrics.IncSignalConfirmed()

	signalID, err := e.journal.RecordSignal(ctx, sig)
	if err != nil {
		// the audit trail never blocks trading
		e.logger.Error(ctx, err, op+": Failed to journal signal")
	}

	equity, err := e.broker.Equity(ctx)
	if err != nil {
		e.logger.Error(ctx, err, op+": Failed to read equity")
		metrics.IncCycle(metrics.OutcomeError)
		return
	}

	plan, err := e.orders.BuildPlan(ctx, sig, e.limits, equity)
	if err != nil {
		e.logger.Warn(ctx, op+": Signal not tradable", map[string]interface{}{"reason": err.Error()})
		metrics.IncCycle(metrics.OutcomeError)
		return
	}

	accepted, err := e.orders.Submit(ctx, signalID, plan, now)
	if err != nil {
		e.logger.Error(ctx, err, op+": Order submission failed")
		metrics.IncCycle(metrics.OutcomeError)
		return
	}
	if accepted {
		// the throttle advances only when the broker took the order
		e.lastSignalAt = now
		metrics.IncOrderAccepted()
	} else {
		metrics.IncOrderRejected()
	}
	metrics.IncCycle(metrics.OutcomeSignal)
}
