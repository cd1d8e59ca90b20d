package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fxReversalBot/internal/domain"
)

// Quote is a single bid/ask snapshot.
type Quote struct {
	Bid float64
	Ask float64
	At  time.Time
}

// Spread returns the current bid/ask spread in price units.
func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

// MarketData supplies candles, quotes and instrument metadata.
// A data-unavailable error from any method means "no signal this cycle",
// never a fatal condition.
type MarketData interface {
	// Candles retrieves the most recent count candles, ordered oldest-first.
	Candles(ctx context.Context, symbol, timeframe string, count int) ([]domain.Candle, error)

	// Quote retrieves the current bid/ask for the symbol.
	Quote(ctx context.Context, symbol string) (Quote, error)

	// InstrumentLimits retrieves the quantization and monetary conversion
	// constants for the symbol.
	InstrumentLimits(ctx context.Context, symbol string) (domain.InstrumentLimits, error)
}

// OrderSpec describes one pending order submission.
type OrderSpec struct {
	Symbol     string
	Side       domain.OrderSide
	Type       domain.OrderType
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Lots       decimal.Decimal
	Magic      int64
	ClientID   string
	Comment    string
}

// OrderResult reports the broker's verdict on a submission or modification.
type OrderResult struct {
	Ticket  int64
	RetCode domain.RetCode
}

// Broker executes orders and reports account and position state.
type Broker interface {
	// SubmitPendingOrder places a pending order. A transport failure is
	// returned as an error; a broker-side rejection comes back as a
	// non-done RetCode with a nil error.
	SubmitPendingOrder(ctx context.Context, spec OrderSpec) (OrderResult, error)

	// ModifyPosition changes the protective levels of an open position.
	ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit float64) (OrderResult, error)

	// OpenPositions lists the open positions for the symbol tagged with the
	// given magic number.
	OpenPositions(ctx context.Context, symbol string, magic int64) ([]*domain.Position, error)

	// Balance retrieves the account balance.
	Balance(ctx context.Context) (decimal.Decimal, error)

	// Equity retrieves the account equity (balance plus floating P/L).
	Equity(ctx context.Context) (decimal.Decimal, error)
}
