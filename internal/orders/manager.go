// Package orders owns the order lifecycle: turning a confirmed signal into a
// pending short order and promoting the stop-loss of open positions to
// breakeven once price has travelled the initial risk distance.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/ports"
	"fxReversalBot/internal/risk"
)

// stopFactor places the protective stop half the zone height above entry.
const stopFactor = 0.5

// Config holds parameters for the order lifecycle manager.
type Config struct {
	Symbol        string
	Magic         int64
	RiskAmount    float64
	MinRiskReward float64
	Comment       string
}

// Manager builds, submits and maintains orders for one symbol.
type Manager struct {
	cfg     Config
	sizer   *risk.Sizer
	broker  ports.Broker
	journal ports.SignalJournal
	logger  ports.Logger
}

// New creates an order lifecycle manager.
func New(cfg Config, sizer *risk.Sizer, broker ports.Broker, journal ports.SignalJournal, logger ports.Logger) (*Manager, error) {
	if sizer == nil || broker == nil || journal == nil || logger == nil {
		return nil, fmt.Errorf("sizer, broker, journal and logger are required")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if cfg.Magic <= 0 {
		return nil, fmt.Errorf("magic number must be positive, got %d", cfg.Magic)
	}
	if cfg.RiskAmount <= 0 {
		return nil, fmt.Errorf("risk amount must be positive, got %v", cfg.RiskAmount)
	}
	if cfg.MinRiskReward <= 0 {
		return nil, fmt.Errorf("min risk reward must be positive, got %v", cfg.MinRiskReward)
	}
	return &Manager{cfg: cfg, sizer: sizer, broker: broker, journal: journal, logger: logger}, nil
}

// BuildPlan derives the order levels from the signal zones and sizes the
// volume. The entry sits at resistance, the stop half the zone height above
// it and the target the zone height times the reward multiple below it.
func (m *Manager) BuildPlan(ctx context.Context, sig domain.Signal, limits domain.InstrumentLimits, equity decimal.Decimal) (domain.RiskPlan, error) {
	entry := sig.Resistance.Price
	height := entry - sig.Support.Price
	plan := domain.RiskPlan{
		Symbol:     m.cfg.Symbol,
		Entry:      entry,
		StopLoss:   entry + stopFactor*height,
		TakeProfit: entry - height*m.cfg.MinRiskReward,
	}

	lots, err := m.sizer.ComputeLots(ctx, m.cfg.RiskAmount, plan.Entry, plan.StopLoss, limits, equity)
	if err != nil {
		return domain.RiskPlan{}, fmt.Errorf("sizing failed for entry %v stop %v: %w", plan.Entry, plan.StopLoss, err)
	}
	plan.Lots = lots

	if !plan.Valid() {
		m.logger.Error(ctx, ports.ErrInvalidComputation, "Order plan violates the short price invariant",
			map[string]interface{}{"entry": plan.Entry, "stopLoss": plan.StopLoss, "takeProfit": plan.TakeProfit})
		return domain.RiskPlan{}, fmt.Errorf("plan stop %v / entry %v / tp %v is not a valid short: %w",
			plan.StopLoss, plan.Entry, plan.TakeProfit, ports.ErrInvalidComputation)
	}
	return plan, nil
}

// Submit places the plan as a pending sell limit order and journals the
// outcome. A broker rejection is not an error: it is logged, recorded and
// reported as accepted=false, and the caller must not retry.
func (m *Manager) Submit(ctx context.Context, signalID int64, plan domain.RiskPlan, now time.Time) (bool, error) {
	spec := ports.OrderSpec{
		Symbol:     m.cfg.Symbol,
		Side:       domain.Sell,
		Type:       domain.OrderTypeSellLimit,
		Price:      plan.Entry,
		StopLoss:   plan.StopLoss,
		TakeProfit: plan.TakeProfit,
		Lots:       plan.Lots,
		Magic:      m.cfg.Magic,
		ClientID:   uuid.NewString(),
		Comment:    m.cfg.Comment,
	}

	result, err := m.broker.SubmitPendingOrder(ctx, spec)
	if err != nil {
		return false, fmt.Errorf("order submission failed: %w", err)
	}

	entry := ports.OrderLogEntry{
		SignalID:   signalID,
		Symbol:     spec.Symbol,
		ClientID:   spec.ClientID,
		Entry:      spec.Price,
		StopLoss:   spec.StopLoss,
		TakeProfit: spec.TakeProfit,
		Lots:       spec.Lots,
		Ticket:     result.Ticket,
		RetCode:    result.RetCode,
		Accepted:   result.RetCode.IsDone(),
		At:         now,
	}
	if jerr := m.journal.RecordOrder(ctx, entry); jerr != nil {
		// the audit trail never blocks trading
		m.logger.Error(ctx, jerr, "Failed to journal order outcome",
			map[string]interface{}{"clientID": spec.ClientID, "ticket": result.Ticket})
	}

	if !entry.Accepted {
		m.logger.Warn(ctx, "Broker rejected pending order", map[string]interface{}{
			"clientID": spec.ClientID,
			"retCode":  int(result.RetCode),
			"reason":   result.RetCode.Reason(),
			"entry":    spec.Price,
			"lots":     spec.Lots,
		})
		return false, nil
	}

	m.logger.Info(ctx, "Pending order accepted", map[string]interface{}{
		"ticket":     result.Ticket,
		"clientID":   spec.ClientID,
		"entry":      spec.Price,
		"stopLoss":   spec.StopLoss,
		"takeProfit": spec.TakeProfit,
		"lots":       spec.Lots,
	})
	return true, nil
}

// ManageBreakeven walks the open short positions carrying this manager's
// magic number and moves the stop-loss to the open price once the favorable
// move has reached the initial risk distance. The move is one-way: a
// position already at breakeven is never touched again.
func (m *Manager) ManageBreakeven(ctx context.Context, currentPrice float64) (int, error) {
	positions, err := m.broker.OpenPositions(ctx, m.cfg.Symbol, m.cfg.Magic)
	if err != nil {
		return 0, fmt.Errorf("listing open positions: %w", err)
	}

	moved := 0
	for _, p := range positions {
		if !p.IsShort || p.AtBreakeven() {
			continue
		}
		if p.Profit(currentPrice) < p.InitialRisk() {
			continue
		}

		result, err := m.broker.ModifyPosition(ctx, p.Ticket, p.OpenPrice, p.TakeProfit)
		if err != nil {
			m.logger.Error(ctx, err, "Breakeven modification failed",
				map[string]interface{}{"ticket": p.Ticket})
			continue
		}
		if !result.RetCode.IsDone() {
			m.logger.Warn(ctx, "Broker refused breakeven modification", map[string]interface{}{
				"ticket":  p.Ticket,
				"retCode": int(result.RetCode),
				"reason":  result.RetCode.Reason(),
			})
			continue
		}

		m.logger.Info(ctx, "Stop-loss moved to breakeven", map[string]interface{}{
			"ticket":    p.Ticket,
			"openPrice": p.OpenPrice,
		})
		moved++
	}
	return moved, nil
}
