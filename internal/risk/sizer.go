// Package risk sizes orders against a fixed monetary budget and enforces the
// daily loss limit. All monetary arithmetic uses decimals; float64 enters
// only at the price boundary.
package risk

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/ports"
)

var oneHundred = decimal.NewFromInt(100)

// Sizer converts a risk budget and a stop distance into an order volume.
type Sizer struct {
	maxRiskPercent decimal.Decimal
	logger         ports.Logger
}

// NewSizer creates a sizer. maxRiskPercent is the equity percentage that caps
// the loss at stop regardless of the configured risk amount.
func NewSizer(maxRiskPercent float64, logger ports.Logger) (*Sizer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for sizer")
	}
	if maxRiskPercent <= 0 || maxRiskPercent > 100 {
		return nil, fmt.Errorf("max risk percent must be in (0, 100], got %v", maxRiskPercent)
	}
	return &Sizer{
		maxRiskPercent: decimal.NewFromFloat(maxRiskPercent),
		logger:         logger,
	}, nil
}

// ComputeLots sizes an order so that the monetary loss at the stop level does
// not exceed min(riskAmount, maxRiskPercent of equity). The budget-derived
// volume is floored to the instrument lot step and clamped to [MinLot,
// MaxLot]; when the equity cap binds, the cap itself is returned unquantized.
// The result is rounded down to two decimal places either way, so rounding
// can never push the loss back above the cap.
func (s *Sizer) ComputeLots(ctx context.Context, riskAmount, entry, stop float64, limits domain.InstrumentLimits, equity decimal.Decimal) (decimal.Decimal, error) {
	if riskAmount <= 0 {
		return decimal.Zero, fmt.Errorf("risk amount %v must be positive: %w", riskAmount, ports.ErrRiskRejected)
	}
	if entry <= 0 || stop <= 0 {
		return decimal.Zero, fmt.Errorf("entry %v and stop %v must be positive: %w", entry, stop, ports.ErrRiskRejected)
	}
	if !limits.Validate() {
		return decimal.Zero, fmt.Errorf("instrument limits %+v are unusable: %w", limits, ports.ErrInvalidComputation)
	}
	if !equity.IsPositive() {
		return decimal.Zero, fmt.Errorf("equity %s must be positive: %w", equity, ports.ErrRiskRejected)
	}

	dist := stop - entry
	if dist < 0 {
		dist = -dist
	}
	if dist == 0 {
		return decimal.Zero, fmt.Errorf("stop distance is zero at entry %v: %w", entry, ports.ErrRiskRejected)
	}

	// price differences carry binary representation dust; rounding the tick
	// distance keeps it from leaking into the floored volume
	riskTicks := decimal.NewFromFloat(dist).Div(decimal.NewFromFloat(limits.TickSize)).Round(8)
	perLotLoss := riskTicks.Mul(decimal.NewFromFloat(limits.TickValue))
	if !perLotLoss.IsPositive() {
		return decimal.Zero, fmt.Errorf("per-lot loss %s is not positive: %w", perLotLoss, ports.ErrInvalidComputation)
	}

	step := decimal.NewFromFloat(limits.LotStep)
	raw := decimal.NewFromFloat(riskAmount).Div(perLotLoss)
	lots := raw.Div(step).Floor().Mul(step)

	minLot := decimal.NewFromFloat(limits.MinLot)
	maxLot := decimal.NewFromFloat(limits.MaxLot)
	if lots.LessThan(minLot) {
		lots = minLot
	}
	if lots.GreaterThan(maxLot) {
		lots = maxLot
	}

	// The equity cap overrides the quantized volume without re-flooring to
	// the lot step, so the capped value may sit between step multiples.
	cap := equity.Mul(s.maxRiskPercent).Div(oneHundred).Div(perLotLoss)
	if lots.GreaterThan(cap) {
		s.logger.Warn(ctx, "Equity cap overrides risk budget volume",
			map[string]interface{}{"budgetLots": lots, "capLots": cap, "equity": equity})
		lots = cap
	}

	lots = lots.RoundFloor(2)
	if !lots.IsPositive() {
		return decimal.Zero, fmt.Errorf("computed volume %s is not positive: %w", lots, ports.ErrRiskRejected)
	}
	return lots, nil
}
