package ports

import (
	"context"
	"time"

	"fxReversalBot/internal/domain"
)

// EvaluationInput bundles everything one evaluation cycle needs. The engine
// gathers it, the evaluator decides.
type EvaluationInput struct {
	Series        domain.Series // recent-first candles
	MACDMain      []float64     // recent-first MACD main line
	MACDSignal    []float64     // recent-first MACD signal line
	Spread        float64
	Now           time.Time
	LastSignalAt  time.Time // zero value when no signal has fired yet
	OpenPositions int       // managed positions currently open
}

// SignalEvaluator decides whether the current market state warrants an order.
type SignalEvaluator interface {
	// MinCandles returns the minimum series length required for evaluation.
	MinCandles() int

	// Evaluate runs the composite signal check. ok is true only when every
	// component confirmed; the returned Signal carries the component
	// breakdown either way.
	Evaluate(ctx context.Context, in EvaluationInput) (sig domain.Signal, ok bool)
}
