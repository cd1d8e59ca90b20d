// Package replaydata implements ports.MarketData over a recorded candle
// sequence. The replay tool advances a cursor through history; every query
// sees only the candles up to the cursor, so the engine never looks ahead.
package replaydata

import (
	"context"
	"fmt"
	"sync"

	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/ports"
)

// Feed serves recorded candles as live market data.
type Feed struct {
	symbol  string
	limits  domain.InstrumentLimits
	spread  float64
	candles []domain.Candle

	mu     sync.Mutex
	cursor int // index of the newest visible candle
}

// Config holds the replay parameters.
type Config struct {
	Symbol  string
	Limits  domain.InstrumentLimits
	Spread  float64 // synthetic bid/ask spread in price units
	Candles []domain.Candle // chronological, oldest first
}

// New creates a feed positioned before the first candle.
func New(cfg Config) (*Feed, error) {
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required for replay feed")
	}
	if !cfg.Limits.Validate() {
		return nil, fmt.Errorf("instrument limits are unusable: %+v", cfg.Limits)
	}
	if cfg.Spread < 0 {
		return nil, fmt.Errorf("spread must not be negative, got %f", cfg.Spread)
	}
	if len(cfg.Candles) == 0 {
		return nil, fmt.Errorf("no candles to replay")
	}
	for i := 1; i < len(cfg.Candles); i++ {
		if !cfg.Candles[i].Time.After(cfg.Candles[i-1].Time) {
			return nil, fmt.Errorf("candles must be strictly chronological, violation at index %d", i)
		}
	}
	return &Feed{
		symbol:  cfg.Symbol,
		limits:  cfg.Limits,
		spread:  cfg.Spread,
		candles: cfg.Candles,
		cursor:  -1,
	}, nil
}

// Advance moves the cursor to the next candle. It returns false when history
// is exhausted.
func (f *Feed) Advance() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursor+1 >= len(f.candles) {
		return false
	}
	f.cursor++
	return true
}

// Current returns the candle at the cursor.
func (f *Feed) Current() (domain.Candle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursor < 0 {
		return domain.Candle{}, false
	}
	return f.candles[f.cursor], true
}

// Candles returns up to count candles ending at the cursor, oldest first.
func (f *Feed) Candles(ctx context.Context, symbol, timeframe string, count int) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if symbol != f.symbol {
		return nil, fmt.Errorf("replay feed only serves %s: %w", f.symbol, ports.ErrSymbolUnknown)
	}
	if f.cursor < 0 {
		return nil, fmt.Errorf("replay feed not advanced yet: %w", ports.ErrDataUnavailable)
	}

	end := f.cursor + 1
	start := end - count
	if start < 0 {
		start = 0
	}
	out := make([]domain.Candle, end-start)
	copy(out, f.candles[start:end])
	return out, nil
}

// Quote synthesizes a bid/ask pair around the cursor candle's close.
func (f *Feed) Quote(ctx context.Context, symbol string) (ports.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if symbol != f.symbol {
		return ports.Quote{}, fmt.Errorf("replay feed only serves %s: %w", f.symbol, ports.ErrSymbolUnknown)
	}
	if f.cursor < 0 {
		return ports.Quote{}, fmt.Errorf("replay feed not advanced yet: %w", ports.ErrDataUnavailable)
	}

	c := f.candles[f.cursor]
	half := f.spread / 2
	return ports.Quote{
		Bid: c.Close - half,
		Ask: c.Close + half,
		At:  c.Time,
	}, nil
}

// InstrumentLimits returns the configured limits.
func (f *Feed) InstrumentLimits(ctx context.Context, symbol string) (domain.InstrumentLimits, error) {
	if symbol != f.symbol {
		return domain.InstrumentLimits{}, fmt.Errorf("replay feed only serves %s: %w", f.symbol, ports.ErrSymbolUnknown)
	}
	return f.limits, nil
}

// Remaining reports how many candles are left past the cursor.
func (f *Feed) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.candles) - 1 - f.cursor
}
