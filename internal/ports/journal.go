package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fxReversalBot/internal/domain"
)

// OrderLogEntry records the outcome of one order attempt for audit.
type OrderLogEntry struct {
	SignalID   int64
	Symbol     string
	ClientID   string
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Lots       decimal.Decimal
	Ticket     int64
	RetCode    domain.RetCode
	Accepted   bool
	At         time.Time
}

// SignalJournal persists an audit trail of confirmed signals and order
// attempts. It records decisions, not trade history: positions and closed
// trades are never written here.
type SignalJournal interface {
	// RecordSignal saves a confirmed signal and returns its assigned ID.
	RecordSignal(ctx context.Context, sig domain.Signal) (int64, error)

	// RecordOrder saves the outcome of an order attempt.
	RecordOrder(ctx context.Context, entry OrderLogEntry) error
}
