package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position identifies one open order owned by this strategy, tagged with its
// magic number. It is mutated only by the order lifecycle manager and
// disappears once the broker reports it closed.
type Position struct {
	Ticket     int64
	Symbol     string
	Magic      int64
	OpenPrice  float64
	StopLoss   float64
	TakeProfit float64
	Lots       decimal.Decimal
	IsShort    bool
	OpenedAt   time.Time
}

// AtBreakeven reports whether the stop-loss already sits at the open price.
func (p *Position) AtBreakeven() bool {
	return p.StopLoss == p.OpenPrice
}

// InitialRisk returns the distance between the original stop-loss and the
// open price as a positive magnitude. For a short the stop sits above the
// open, for a long below; either way the magnitude is the 1:1 reward
// threshold used for breakeven promotion.
func (p *Position) InitialRisk() float64 {
	d := p.StopLoss - p.OpenPrice
	if d < 0 {
		return -d
	}
	return d
}

// Profit returns the unrealized favorable move in price units at the given
// current price.
func (p *Position) Profit(currentPrice float64) float64 {
	if p.IsShort {
		return p.OpenPrice - currentPrice
	}
	return currentPrice - p.OpenPrice
}
