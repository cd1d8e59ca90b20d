package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxReversalBot/config"
	"fxReversalBot/internal/adapters/logger"
	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/orders"
	"fxReversalBot/internal/ports"
	"fxReversalBot/internal/risk"
)

// Mock implementations
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockMarketData struct {
	candles    []domain.Candle
	candlesErr error
	quote      ports.Quote
	quoteErr   error
	limits     domain.InstrumentLimits
	limitsErr  error
	quoteCalls int
}

func (m *mockMarketData) Candles(ctx context.Context, symbol, timeframe string, count int) ([]domain.Candle, error) {
	return m.candles, m.candlesErr
}

func (m *mockMarketData) Quote(ctx context.Context, symbol string) (ports.Quote, error) {
	m.quoteCalls++
	return m.quote, m.quoteErr
}

func (m *mockMarketData) InstrumentLimits(ctx context.Context, symbol string) (domain.InstrumentLimits, error) {
	return m.limits, m.limitsErr
}

type mockBroker struct {
	balance      decimal.Decimal
	balanceErr   error
	equity       decimal.Decimal
	positions    []*domain.Position
	submitted    []ports.OrderSpec
	submitRes    ports.OrderResult
	submitErr    error
	balanceCalls int
}

func (m *mockBroker) SubmitPendingOrder(ctx context.Context, spec ports.OrderSpec) (ports.OrderResult, error) {
	m.submitted = append(m.submitted, spec)
	return m.submitRes, m.submitErr
}

func (m *mockBroker) ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit float64) (ports.OrderResult, error) {
	return ports.OrderResult{RetCode: domain.RetCodeDone}, nil
}

func (m *mockBroker) OpenPositions(ctx context.Context, symbol string, magic int64) ([]*domain.Position, error) {
	return m.positions, nil
}

func (m *mockBroker) Balance(ctx context.Context) (decimal.Decimal, error) {
	m.balanceCalls++
	return m.balance, m.balanceErr
}

func (m *mockBroker) Equity(ctx context.Context) (decimal.Decimal, error) {
	return m.equity, nil
}

type mockEvaluator struct {
	sig       domain.Signal
	ok        bool
	minCandle int
	lastInput ports.EvaluationInput
	calls     int
}

func (m *mockEvaluator) MinCandles() int { return m.minCandle }

func (m *mockEvaluator) Evaluate(ctx context.Context, in ports.EvaluationInput) (domain.Signal, bool) {
	m.calls++
	m.lastInput = in
	return m.sig, m.ok
}

type mockJournal struct {
	signals []domain.Signal
	orders  []ports.OrderLogEntry
}

func (m *mockJournal) RecordSignal(ctx context.Context, sig domain.Signal) (int64, error) {
	m.signals = append(m.signals, sig)
	return int64(len(m.signals)), nil
}

func (m *mockJournal) RecordOrder(ctx context.Context, entry ports.OrderLogEntry) error {
	m.orders = append(m.orders, entry)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Symbol:               "EURUSD",
		RiskAmount:           50,
		MaxDailyLoss:         200,
		MinRiskReward:        2.0,
		MaxRiskPercent:       5,
		Magic:                234567,
		CooldownSeconds:      60,
		Timeframe:            "1m",
		LookbackPeriod:       20,
		TouchTolerancePoints: 5,
		BodyRatio:            1.5,
		MaxSpread:            0.0003,
		PollInterval:         10 * time.Millisecond,
		Gateway:              "paper",
		PaperBalance:         10000,
		DBPath:               ":memory:",
		LogLevel:             logger.LevelError,
		LogFormat:            "text",
	}
}

func eurusdLimits() domain.InstrumentLimits {
	return domain.InstrumentLimits{
		TickValue: 1.0,
		TickSize:  0.0001,
		Point:     0.0001,
		MinLot:    0.01,
		MaxLot:    100.0,
		LotStep:   0.01,
	}
}

// chronological candles, oldest first, enough for a 25-candle evaluator
func testCandles(n int) []domain.Candle {
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Symbol: "EURUSD",
			Open:   1.1000,
			High:   1.1010,
			Low:    1.0990,
			Close:  1.1005,
		}
	}
	return out
}

type engineFixture struct {
	engine    *Engine
	market    *mockMarketData
	broker    *mockBroker
	evaluator *mockEvaluator
	journal   *mockJournal
	logger    *mockLogger
	governor  *risk.Governor
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	log := &mockLogger{}
	market := &mockMarketData{
		candles: testCandles(60),
		quote:   ports.Quote{Bid: 1.1000, Ask: 1.1002, At: time.Now()},
		limits:  eurusdLimits(),
	}
	broker := &mockBroker{
		balance:   decimal.NewFromInt(10000),
		equity:    decimal.NewFromInt(10000),
		submitRes: ports.OrderResult{Ticket: 1, RetCode: domain.RetCodeDone},
	}
	evaluator := &mockEvaluator{minCandle: 25}
	journal := &mockJournal{}

	sizer, err := risk.NewSizer(5, log)
	require.NoError(t, err)
	orderMgr, err := orders.New(orders.Config{
		Symbol:        "EURUSD",
		Magic:         234567,
		RiskAmount:    50,
		MinRiskReward: 2.0,
	}, sizer, broker, journal, log)
	require.NoError(t, err)

	governor, err := risk.NewGovernor(decimal.NewFromInt(10000), 200, log)
	require.NoError(t, err)

	engine, err := NewEngine(testConfig(), log, market, broker, evaluator, journal, orderMgr, governor)
	require.NoError(t, err)
	engine.limits = eurusdLimits()

	return &engineFixture{
		engine:    engine,
		market:    market,
		broker:    broker,
		evaluator: evaluator,
		journal:   journal,
		logger:    log,
		governor:  governor,
	}
}

func TestNewEngine_MissingDependencies(t *testing.T) {
	f := newFixture(t)
	_, err := NewEngine(nil, f.logger, f.market, f.broker, f.evaluator, f.journal, f.engine.orders, f.governor)
	assert.Error(t, err)

	_, err = NewEngine(testConfig(), f.logger, nil, f.broker, f.evaluator, f.journal, f.engine.orders, f.governor)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.PollInterval = 0
	_, err = NewEngine(cfg, f.logger, f.market, f.broker, f.evaluator, f.journal, f.engine.orders, f.governor)
	assert.Error(t, err)
}

func TestRunCycle_NoSignal(t *testing.T) {
	f := newFixture(t)
	f.evaluator.ok = false

	f.engine.runCycle(context.Background())

	assert.Equal(t, 1, f.evaluator.calls)
	assert.Empty(t, f.broker.submitted)
	assert.Empty(t, f.journal.signals)
	assert.True(t, f.engine.lastSignalAt.IsZero())
}

func TestRunCycle_SignalSubmitsOrder(t *testing.T) {
	f := newFixture(t)
	f.evaluator.ok = true
	f.evaluator.sig = domain.Signal{
		Symbol:          "EURUSD",
		Support:         domain.Zone{Price: 1.0950, Touches: 1},
		Resistance:      domain.Zone{Price: 1.1050, Touches: 2},
		BearishReversal: true,
		MACDConfirmed:   true,
		FVGAligned:      true,
		SpreadOK:        true,
	}

	f.engine.runCycle(context.Background())

	require.Len(t, f.broker.submitted, 1)
	spec := f.broker.submitted[0]
	assert.Equal(t, domain.OrderTypeSellLimit, spec.Type)
	assert.InDelta(t, 1.1050, spec.Price, 1e-9)

	// signal journaled, order journaled, throttle advanced on acceptance
	assert.Len(t, f.journal.signals, 1)
	assert.Len(t, f.journal.orders, 1)
	assert.False(t, f.engine.lastSignalAt.IsZero())
}

func TestRunCycle_RejectionDoesNotAdvanceThrottle(t *testing.T) {
	f := newFixture(t)
	f.evaluator.ok = true
	f.evaluator.sig = domain.Signal{
		Support:    domain.Zone{Price: 1.0950, Touches: 1},
		Resistance: domain.Zone{Price: 1.1050, Touches: 2},
	}
	f.broker.submitRes = ports.OrderResult{RetCode: domain.RetCodeReject}

	f.engine.runCycle(context.Background())

	require.Len(t, f.broker.submitted, 1)
	assert.True(t, f.engine.lastSignalAt.IsZero())
}

func TestRunCycle_GovernorBlocksAnalysis(t *testing.T) {
	f := newFixture(t)
	f.evaluator.ok = true
	f.broker.balance = decimal.NewFromInt(9700) // drawdown 300 past the 200 limit

	f.engine.runCycle(context.Background())

	// the cycle stops before any market access or evaluation
	assert.Equal(t, 0, f.market.quoteCalls)
	assert.Equal(t, 0, f.evaluator.calls)
	assert.Empty(t, f.broker.submitted)
	assert.True(t, f.governor.Tripped())

	// recovery does not re-enable trading
	f.broker.balance = decimal.NewFromInt(10000)
	f.engine.runCycle(context.Background())
	assert.Equal(t, 0, f.evaluator.calls)
}

func TestRunCycle_EvaluatorInput(t *testing.T) {
	f := newFixture(t)
	f.broker.positions = []*domain.Position{{Ticket: 5, Symbol: "EURUSD", Magic: 234567, IsShort: true,
		OpenPrice: 1.1050, StopLoss: 1.1100, TakeProfit: 1.0850, Lots: decimal.NewFromInt(1)}}

	f.engine.runCycle(context.Background())

	in := f.evaluator.lastInput
	assert.Len(t, in.Series, 60)
	// recent-first: index 0 carries the newest timestamp
	assert.True(t, in.Series[0].Time.After(in.Series[1].Time))
	assert.InDelta(t, 0.0002, in.Spread, 1e-9)
	assert.Equal(t, 1, in.OpenPositions)
}

func TestRunCycle_NotEnoughCandles(t *testing.T) {
	f := newFixture(t)
	f.evaluator.ok = true
	f.market.candles = testCandles(10)

	f.engine.runCycle(context.Background())

	assert.Equal(t, 0, f.evaluator.calls)
	assert.Empty(t, f.broker.submitted)
}

func TestRunCycle_BalanceErrorSkipsCycle(t *testing.T) {
	f := newFixture(t)
	f.evaluator.ok = true
	f.broker.balanceErr = ports.ErrGatewayUnavailable

	f.engine.runCycle(context.Background())

	assert.Equal(t, 0, f.evaluator.calls)
	assert.Empty(t, f.broker.submitted)
	assert.NotEmpty(t, f.logger.errorMsgs)
}

func TestStart_AccountReadinessFailure(t *testing.T) {
	f := newFixture(t)
	f.broker.balanceErr = ports.ErrGatewayUnavailable

	err := f.engine.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrGatewayUnavailable)
}

func TestStart_SymbolValidationFailure(t *testing.T) {
	f := newFixture(t)
	f.market.limits = domain.InstrumentLimits{}

	err := f.engine.Start(context.Background())
	require.Error(t, err)
}

func TestStart_RunsCyclesUntilCancelled(t *testing.T) {
	f := newFixture(t)
	f.evaluator.ok = false

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := f.engine.Start(ctx)
	require.NoError(t, err)
	assert.Greater(t, f.evaluator.calls, 0)
}
