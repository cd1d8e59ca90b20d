// Package paperbroker provides an in-memory ports.Broker for dry runs and
// replay. It keeps a pending order book and open positions, fills and closes
// them against prices pushed via OnTick, and settles realized profit into the
// simulated balance. No network, no persistence.
package paperbroker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/ports"
)

// Config holds the paper account parameters.
type Config struct {
	StartingBalance float64
	Limits          domain.InstrumentLimits
	Logger          ports.Logger
}

type pendingOrder struct {
	ticket int64
	spec   ports.OrderSpec
}

// Broker simulates order execution against an in-memory account.
type Broker struct {
	logger ports.Logger
	limits domain.InstrumentLimits

	mu         sync.Mutex
	balance    decimal.Decimal
	pending    map[int64]*pendingOrder
	positions  map[int64]*domain.Position
	nextTicket int64
	lastPrice  float64
}

// New creates a paper broker with the given starting balance.
func New(cfg Config) (*Broker, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for paper broker")
	}
	if cfg.StartingBalance <= 0 {
		return nil, fmt.Errorf("starting balance must be positive, got %f", cfg.StartingBalance)
	}
	if !cfg.Limits.Validate() {
		return nil, fmt.Errorf("instrument limits are unusable: %+v", cfg.Limits)
	}
	return &Broker{
		logger:     cfg.Logger,
		limits:     cfg.Limits,
		balance:    decimal.NewFromFloat(cfg.StartingBalance),
		pending:    make(map[int64]*pendingOrder),
		positions:  make(map[int64]*domain.Position),
		nextTicket: 1,
	}, nil
}

// SubmitPendingOrder validates the request the way a trade server would and
// books it. Validation failures come back as return codes with a nil error.
func (b *Broker) SubmitPendingOrder(ctx context.Context, spec ports.OrderSpec) (ports.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if spec.Type != domain.OrderTypeSellLimit && spec.Type != domain.OrderTypeBuyLimit {
		return ports.OrderResult{RetCode: domain.RetCodeReject}, nil
	}
	if spec.Price <= 0 {
		return ports.OrderResult{RetCode: domain.RetCodeInvalidPrice}, nil
	}
	if !b.volumeOK(spec.Lots) {
		return ports.OrderResult{RetCode: domain.RetCodeInvalidVolume}, nil
	}
	if !stopsOK(spec) {
		return ports.OrderResult{RetCode: domain.RetCodeInvalidStops}, nil
	}

	ticket := b.nextTicket
	b.nextTicket++
	b.pending[ticket] = &pendingOrder{ticket: ticket, spec: spec}

	b.logger.Debug(ctx, "Pending order booked", map[string]interface{}{
		"ticket": ticket, "symbol": spec.Symbol, "price": spec.Price, "lots": spec.Lots,
	})
	return ports.OrderResult{Ticket: ticket, RetCode: domain.RetCodeDone}, nil
}

// ModifyPosition changes the protective levels of an open position. An
// unknown ticket or an inverted level pair is refused with a return code.
func (b *Broker) ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit float64) (ports.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos, ok := b.positions[ticket]
	if !ok {
		return ports.OrderResult{Ticket: ticket, RetCode: domain.RetCodeReject}, nil
	}
	if pos.IsShort && stopLoss > 0 && takeProfit > 0 && stopLoss <= takeProfit {
		return ports.OrderResult{Ticket: ticket, RetCode: domain.RetCodeInvalidStops}, nil
	}

	pos.StopLoss = stopLoss
	pos.TakeProfit = takeProfit
	b.logger.Debug(ctx, "Position modified", map[string]interface{}{
		"ticket": ticket, "stopLoss": stopLoss, "takeProfit": takeProfit,
	})
	return ports.OrderResult{Ticket: ticket, RetCode: domain.RetCodeDone}, nil
}

// OpenPositions lists open positions for the symbol tagged with the magic.
func (b *Broker) OpenPositions(ctx context.Context, symbol string, magic int64) ([]*domain.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*domain.Position, 0, len(b.positions))
	for _, pos := range b.positions {
		if pos.Symbol == symbol && pos.Magic == magic {
			cp := *pos
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Balance returns the settled account balance.
func (b *Broker) Balance(ctx context.Context) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, nil
}

// Equity returns the balance plus floating profit at the last seen price.
func (b *Broker) Equity(ctx context.Context) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	equity := b.balance
	for _, pos := range b.positions {
		if b.lastPrice > 0 {
			equity = equity.Add(b.moneyProfit(pos, b.lastPrice))
		}
	}
	return equity, nil
}

// OnTick advances the simulation to a new price: pending limits fill, and
// open positions close when the price crosses their stop or target. Fills and
// closes use the limit level itself, so the simulation has no slippage.
func (b *Broker) OnTick(ctx context.Context, price float64, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastPrice = price

	for ticket, ord := range b.pending {
		if !fills(ord.spec, price) {
			continue
		}
		delete(b.pending, ticket)
		b.positions[ticket] = &domain.Position{
			Ticket:     ticket,
			Symbol:     ord.spec.Symbol,
			Magic:      ord.spec.Magic,
			OpenPrice:  ord.spec.Price,
			StopLoss:   ord.spec.StopLoss,
			TakeProfit: ord.spec.TakeProfit,
			Lots:       ord.spec.Lots,
			IsShort:    ord.spec.Side == domain.Sell,
			OpenedAt:   at,
		}
		b.logger.Info(ctx, "Pending order filled", map[string]interface{}{
			"ticket": ticket, "symbol": ord.spec.Symbol, "price": ord.spec.Price,
		})
	}

	for ticket, pos := range b.positions {
		closePrice, reason, closed := exitLevel(pos, price)
		if !closed {
			continue
		}
		pnl := b.moneyProfit(pos, closePrice)
		b.balance = b.balance.Add(pnl)
		delete(b.positions, ticket)
		b.logger.Info(ctx, "Position closed", map[string]interface{}{
			"ticket": ticket, "reason": reason, "price": closePrice, "pnl": pnl,
		})
	}
}

// moneyProfit converts a price move into account currency for the position's
// volume.
func (b *Broker) moneyProfit(pos *domain.Position, price float64) decimal.Decimal {
	move := pos.Profit(price)
	ticks := decimal.NewFromFloat(move).Div(decimal.NewFromFloat(b.limits.TickSize)).Round(8)
	return ticks.Mul(decimal.NewFromFloat(b.limits.TickValue)).Mul(pos.Lots)
}

func (b *Broker) volumeOK(lots decimal.Decimal) bool {
	v := lots.InexactFloat64()
	if v < b.limits.MinLot || v > b.limits.MaxLot {
		return false
	}
	steps := v / b.limits.LotStep
	return math.Abs(steps-math.Round(steps)) < 1e-6
}

func stopsOK(spec ports.OrderSpec) bool {
	switch spec.Type {
	case domain.OrderTypeSellLimit:
		if spec.StopLoss > 0 && spec.StopLoss <= spec.Price {
			return false
		}
		if spec.TakeProfit > 0 && spec.TakeProfit >= spec.Price {
			return false
		}
	case domain.OrderTypeBuyLimit:
		if spec.StopLoss > 0 && spec.StopLoss >= spec.Price {
			return false
		}
		if spec.TakeProfit > 0 && spec.TakeProfit <= spec.Price {
			return false
		}
	}
	return true
}

// fills reports whether the market reached the limit level.
func fills(spec ports.OrderSpec, price float64) bool {
	switch spec.Type {
	case domain.OrderTypeSellLimit:
		return price >= spec.Price
	case domain.OrderTypeBuyLimit:
		return price <= spec.Price
	default:
		return false
	}
}

// exitLevel reports whether the position's stop or target was reached, and at
// which level it closes. The stop is checked first: when one bar spans both
// levels the pessimistic outcome wins.
func exitLevel(pos *domain.Position, price float64) (float64, string, bool) {
	if pos.IsShort {
		if pos.StopLoss > 0 && price >= pos.StopLoss {
			return pos.StopLoss, "stop loss", true
		}
		if pos.TakeProfit > 0 && price <= pos.TakeProfit {
			return pos.TakeProfit, "take profit", true
		}
		return 0, "", false
	}
	if pos.StopLoss > 0 && price <= pos.StopLoss {
		return pos.StopLoss, "stop loss", true
	}
	if pos.TakeProfit > 0 && price >= pos.TakeProfit {
		return pos.TakeProfit, "take profit", true
	}
	return 0, "", false
}
