package domain

import "github.com/shopspring/decimal"

// RiskPlan fully describes one pending short order: the entry level, the
// protective stop, the profit target and the sized volume.
//
// Invariant for a short position: StopLoss > Entry > TakeProfit (the
// favorable move is downward). Lots is quantized to the instrument lot step
// and bounded so the monetary loss at StopLoss never exceeds
// min(risk amount, equity cap).
type RiskPlan struct {
	Symbol     string
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Lots       decimal.Decimal
}

// Valid checks the short-order price invariant.
func (p RiskPlan) Valid() bool {
	return p.StopLoss > p.Entry && p.Entry > p.TakeProfit && p.Lots.IsPositive()
}

// InstrumentLimits carries the broker-supplied quantization and monetary
// conversion constants for one instrument.
type InstrumentLimits struct {
	TickValue float64 // account-currency value of one tick per whole lot
	TickSize  float64 // minimal price increment used for tick conversion
	Point     float64 // price increment used for zone touch tolerance
	MinLot    float64
	MaxLot    float64
	LotStep   float64
}

// Validate reports whether the limits are usable for sizing.
func (l InstrumentLimits) Validate() bool {
	return l.TickValue > 0 && l.TickSize > 0 && l.Point > 0 &&
		l.MinLot > 0 && l.MaxLot >= l.MinLot && l.LotStep > 0
}
