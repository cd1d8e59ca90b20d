package risk

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"fxReversalBot/internal/ports"
)

// Governor disables trading for the rest of the process once the drawdown
// from the day-start balance reaches the configured limit. There is no
// calendar rollover: a trip is final until restart.
type Governor struct {
	mu           sync.Mutex
	dayStart     decimal.Decimal
	maxDailyLoss decimal.Decimal
	tripped      bool
	logger       ports.Logger
}

// NewGovernor captures the day-start balance and the loss limit.
func NewGovernor(dayStartBalance decimal.Decimal, maxDailyLoss float64, logger ports.Logger) (*Governor, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for governor")
	}
	if maxDailyLoss <= 0 {
		return nil, fmt.Errorf("max daily loss must be positive, got %v", maxDailyLoss)
	}
	return &Governor{
		dayStart:     dayStartBalance,
		maxDailyLoss: decimal.NewFromFloat(maxDailyLoss),
		logger:       logger,
	}, nil
}

// Allowed reports whether trading may proceed given the current balance.
// The first call that observes a drawdown at or beyond the limit trips the
// governor; subsequent calls return false without re-reading the balance,
// even if the balance later recovers.
func (g *Governor) Allowed(ctx context.Context, balance decimal.Decimal) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.tripped {
		return false
	}

	drawdown := g.dayStart.Sub(balance)
	if drawdown.GreaterThanOrEqual(g.maxDailyLoss) {
		g.tripped = true
		g.logger.Warn(ctx, "Daily loss limit reached, trading disabled until restart",
			map[string]interface{}{
				"dayStartBalance": g.dayStart,
				"balance":         balance,
				"drawdown":        drawdown,
				"maxDailyLoss":    g.maxDailyLoss,
			})
		return false
	}
	return true
}

// Tripped reports whether the governor has disabled trading.
func (g *Governor) Tripped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tripped
}

// DayStartBalance returns the balance captured at startup.
func (g *Governor) DayStartBalance() decimal.Decimal {
	return g.dayStart
}
