// Package strategy combines the zone, reversal and filter checks into a
// single actionable/no-action decision per evaluation cycle.
package strategy

import (
	"context"
	"fmt"

	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/ports"
	"fxReversalBot/internal/strategy/filters"
	"fxReversalBot/internal/strategy/reversal"
	"fxReversalBot/internal/strategy/zones"
)

// Config holds parameters for the signal aggregator.
type Config struct {
	Symbol          string
	LookbackPeriod  int     // zone scan window, e.g. 20
	TolerancePoints int     // zone touch tolerance in price increments, e.g. 5
	Point           float64 // instrument price increment
	BodyRatio       float64 // reversal body dominance factor, e.g. 1.5
	MaxSpread       float64 // spread ceiling in price units, e.g. 0.0003
	Cooldown        int     // seconds between signal emissions, e.g. 60
}

// Aggregator implements ports.SignalEvaluator. Checks run cheapest-first and
// short-circuit on the first failure; it keeps no state across cycles, so at
// most one signal can be emitted per qualifying cycle.
type Aggregator struct {
	cfg      Config
	zones    *zones.Identifier
	reversal *reversal.Detector
	logger   ports.Logger
}

// New creates a new Aggregator instance.
func New(cfg Config, logger ports.Logger) (*Aggregator, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	// Basic validation
	if cfg.LookbackPeriod <= 0 {
		return nil, fmt.Errorf("lookback period must be positive")
	}
	if cfg.TolerancePoints <= 0 || cfg.Point <= 0 {
		return nil, fmt.Errorf("touch tolerance and point must be positive")
	}
	if cfg.BodyRatio <= 0 {
		return nil, fmt.Errorf("body ratio must be positive")
	}
	if cfg.MaxSpread <= 0 {
		return nil, fmt.Errorf("max spread must be positive")
	}
	if cfg.Cooldown <= 0 {
		return nil, fmt.Errorf("cooldown must be positive")
	}

	return &Aggregator{
		cfg: cfg,
		zones: zones.New(zones.Config{
			Lookback:        cfg.LookbackPeriod,
			TolerancePoints: cfg.TolerancePoints,
			Point:           cfg.Point,
		}),
		reversal: reversal.New(cfg.BodyRatio),
		logger:   logger,
	}, nil
}

// MinCandles returns the minimum series length required for a full evaluation.
func (a *Aggregator) MinCandles() int {
	zoneMin := a.zones.MinSamples()
	if rev := a.reversal.MinCandles(); rev > zoneMin {
		return rev
	}
	return zoneMin
}

// Evaluate runs the composite check and reports whether an order should be
// attempted this cycle. A false return from any individual check leaves the
// remaining checks unevaluated.
func (a *Aggregator) Evaluate(ctx context.Context, in ports.EvaluationInput) (domain.Signal, bool) {
	sig := domain.Signal{Symbol: a.cfg.Symbol, At: in.Now, Spread: in.Spread}

	if !a.cooldownElapsed(in) {
		a.logger.Debug(ctx, "Cooldown active, skipping evaluation",
			map[string]interface{}{"lastSignalAt": in.LastSignalAt})
		return sig, false
	}

	if in.OpenPositions > 0 {
		a.logger.Debug(ctx, "Managed position open, skipping evaluation",
			map[string]interface{}{"openPositions": in.OpenPositions})
		return sig, false
	}

	sig.SpreadOK = filters.SpreadOK(in.Spread, a.cfg.MaxSpread)
	if !sig.SpreadOK {
		a.logger.Debug(ctx, "Spread above ceiling",
			map[string]interface{}{"spread": in.Spread, "maxSpread": a.cfg.MaxSpread})
		return sig, false
	}

	sig.MACDConfirmed = filters.MACDBearish(in.MACDMain, in.MACDSignal)
	if !sig.MACDConfirmed {
		return sig, false
	}

	if len(in.Series) < a.MinCandles() {
		a.logger.Debug(ctx, "Not enough candles for evaluation",
			map[string]interface{}{"available": len(in.Series), "required": a.MinCandles()})
		return sig, false
	}

	sig.BearishReversal = a.reversal.Detect(in.Series)
	if !sig.BearishReversal {
		return sig, false
	}

	sig.Support = a.zones.Support(in.Series.Lows())
	sig.Resistance = a.zones.Resistance(in.Series.Highs())
	if !domain.ValidPair(sig.Support, sig.Resistance) {
		a.logger.Debug(ctx, "No valid support/resistance pair",
			map[string]interface{}{"support": sig.Support.Price, "resistance": sig.Resistance.Price})
		return sig, false
	}

	sig.FVGAligned = filters.FVGAligned(in.Series, sig.Resistance)
	if !sig.FVGAligned {
		return sig, false
	}

	a.logger.Info(ctx, "Signal confirmed", map[string]interface{}{
		"symbol":            sig.Symbol,
		"support":           sig.Support.Price,
		"supportTouches":    sig.Support.Touches,
		"resistance":        sig.Resistance.Price,
		"resistanceTouches": sig.Resistance.Touches,
		"spread":            sig.Spread,
	})
	return sig, true
}

func (a *Aggregator) cooldownElapsed(in ports.EvaluationInput) bool {
	if in.LastSignalAt.IsZero() {
		return true
	}
	return in.Now.Sub(in.LastSignalAt).Seconds() >= float64(a.cfg.Cooldown)
}
