package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Journal, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "fx-reversal-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	journal, err := NewJournal(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		journal.Close()
		os.RemoveAll(tmpDir)
	}

	return journal, cleanup
}

func testSignal(at time.Time) domain.Signal {
	return domain.Signal{
		Symbol:          "EURUSD",
		At:              at,
		Support:         domain.Zone{Price: 1.0950, Touches: 1},
		Resistance:      domain.Zone{Price: 1.1050, Touches: 2},
		Spread:          0.0002,
		BearishReversal: true,
		MACDConfirmed:   true,
		FVGAligned:      true,
		SpreadOK:        true,
	}
}

func TestNewJournal_RequiresLogger(t *testing.T) {
	_, err := NewJournal(Config{DBPath: ":memory:"})
	assert.Error(t, err)
}

func TestJournal_RecordSignal(t *testing.T) {
	journal, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	id1, err := journal.RecordSignal(ctx, testSignal(at))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)

	id2, err := journal.RecordSignal(ctx, testSignal(at.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2)

	signals, err := journal.RecentSignals(ctx, "EURUSD", 10)
	require.NoError(t, err)
	require.Len(t, signals, 2)

	// newest first
	assert.Equal(t, at.Add(time.Minute), signals[0].At.UTC())
	got := signals[1]
	assert.Equal(t, "EURUSD", got.Symbol)
	assert.InDelta(t, 1.0950, got.Support.Price, 1e-9)
	assert.Equal(t, 1, got.Support.Touches)
	assert.InDelta(t, 1.1050, got.Resistance.Price, 1e-9)
	assert.Equal(t, 2, got.Resistance.Touches)
	assert.True(t, got.BearishReversal)
	assert.True(t, got.MACDConfirmed)
	assert.True(t, got.FVGAligned)
	assert.True(t, got.SpreadOK)
}

func TestJournal_RecentSignals_FiltersSymbol(t *testing.T) {
	journal, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	_, err := journal.RecordSignal(ctx, testSignal(at))
	require.NoError(t, err)

	other := testSignal(at)
	other.Symbol = "GBPUSD"
	_, err = journal.RecordSignal(ctx, other)
	require.NoError(t, err)

	signals, err := journal.RecentSignals(ctx, "GBPUSD", 10)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "GBPUSD", signals[0].Symbol)
}

func TestJournal_RecordOrder(t *testing.T) {
	journal, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	signalID, err := journal.RecordSignal(ctx, testSignal(at))
	require.NoError(t, err)

	err = journal.RecordOrder(ctx, ports.OrderLogEntry{
		SignalID:   signalID,
		Symbol:     "EURUSD",
		ClientID:   "c1d2e3",
		Entry:      1.1050,
		StopLoss:   1.1100,
		TakeProfit: 1.0850,
		Lots:       decimal.RequireFromString("0.5"),
		Ticket:     42,
		RetCode:    domain.RetCodeDone,
		Accepted:   true,
		At:         at,
	})
	require.NoError(t, err)

	// a rejection with no journaled signal is still recordable
	err = journal.RecordOrder(ctx, ports.OrderLogEntry{
		Symbol:   "EURUSD",
		ClientID: "f4g5h6",
		Entry:    1.1050,
		Lots:     decimal.RequireFromString("0.5"),
		RetCode:  domain.RetCodeNoMoney,
		Accepted: false,
		At:       at,
	})
	require.NoError(t, err)
}

func TestJournal_Candles(t *testing.T) {
	journal, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	candles := make([]domain.Candle, 5)
	for i := range candles {
		candles[i] = domain.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Symbol: "EURUSD",
			Open:   1.1000 + float64(i)*0.0001,
			High:   1.1010,
			Low:    1.0990,
			Close:  1.1005,
		}
	}
	require.NoError(t, journal.SaveCandles(ctx, candles))

	got, err := journal.CandlesBetween(ctx, "EURUSD", base, base.Add(10*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, base, got[0].Time.UTC())
	assert.InDelta(t, 1.1000, got[0].Open, 1e-9)

	// re-saving the same interval updates in place instead of duplicating
	candles[0].Close = 1.2000
	require.NoError(t, journal.SaveCandles(ctx, candles[:1]))

	got, err = journal.CandlesBetween(ctx, "EURUSD", base, base.Add(10*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.InDelta(t, 1.2000, got[0].Close, 1e-9)

	// range bounds are inclusive
	got, err = journal.CandlesBetween(ctx, "EURUSD", base.Add(time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
