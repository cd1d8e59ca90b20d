// Package binancedata implements ports.MarketData against the Binance
// futures API. It is a read-only gateway: candles, quotes and instrument
// metadata. Order execution lives elsewhere.
package binancedata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Client implements the ports.MarketData interface using the go-binance library.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	contractSize  float64
}

// Config holds configuration specific to the Binance data adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger

	// ContractSize is the number of base units per whole lot, used to derive
	// the monetary tick value. Defaults to 1.
	ContractSize float64
}

// New creates a new Binance market data adapter. Keys may be empty: every
// endpoint this adapter touches is public.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance data client")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance data client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance data client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	contractSize := cfg.ContractSize
	if contractSize <= 0 {
		contractSize = 1
	}

	return &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		contractSize:  contractSize,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Invalid signature
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mappedErr = ports.ErrSymbolUnknown
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1125, -1127, -1128, -1130:
			mappedErr = ports.ErrInvalidRequest
		case -2014, -2015: // API key invalid or lacking permissions
			mappedErr = ports.ErrAuthenticationFailed
		default:
			mappedErr = ports.ErrDataUnavailable
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrDataUnavailable, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// Candles retrieves the most recent count candles, ordered oldest-first.
func (c *Client) Candles(ctx context.Context, symbol, timeframe string, count int) ([]domain.Candle, error) {
	op := "Candles"
	klines, err := c.futuresClient.NewKlinesService().Symbol(symbol).Interval(timeframe).Limit(count).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	candles := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := translateKline(k, symbol)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline: %w", err), op)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// CandlesRange fetches all candles for a symbol between start and end time,
// paging through the API limit. Used by the history fetch tool.
func (c *Client) CandlesRange(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Candle, error) {
	op := "CandlesRange"
	var all []domain.Candle
	const maxLimit = 1500
	from := start

	for {
		klines, err := c.futuresClient.NewKlinesService().
			Symbol(symbol).
			Interval(timeframe).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, k := range klines {
			candle, err := translateKline(k, symbol)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline range: %w", err), op)
			}
			all = append(all, candle)
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime)
		if from.After(end) || len(klines) < maxLimit {
			break
		}
	}

	return all, nil
}

// Quote retrieves the current best bid/ask for the symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (ports.Quote, error) {
	op := "Quote"
	tickers, err := c.futuresClient.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return ports.Quote{}, c.handleError(ctx, err, op)
	}
	if len(tickers) == 0 {
		err := fmt.Errorf("no book ticker returned for symbol %s", symbol)
		return ports.Quote{}, c.handleError(ctx, err, op)
	}

	bid, err := strconv.ParseFloat(tickers[0].BidPrice, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse bid '%s': %w", tickers[0].BidPrice, err)
		return ports.Quote{}, c.handleError(ctx, parseErr, op)
	}
	ask, err := strconv.ParseFloat(tickers[0].AskPrice, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse ask '%s': %w", tickers[0].AskPrice, err)
		return ports.Quote{}, c.handleError(ctx, parseErr, op)
	}

	return ports.Quote{Bid: bid, Ask: ask, At: time.Now().UTC()}, nil
}

// InstrumentLimits retrieves the quantization constants for the symbol from
// the exchange filters. The monetary tick value is derived from the price
// tick and the configured contract size.
func (c *Client) InstrumentLimits(ctx context.Context, symbol string) (domain.InstrumentLimits, error) {
	op := "InstrumentLimits"
	info, err := c.futuresClient.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return domain.InstrumentLimits{}, c.handleError(ctx, err, op)
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}

		lotFilter := s.LotSizeFilter()
		priceFilter := s.PriceFilter()
		if lotFilter == nil || priceFilter == nil {
			err := fmt.Errorf("symbol %s is missing lot size or price filters", symbol)
			return domain.InstrumentLimits{}, c.handleError(ctx, err, op)
		}

		minLot, err := strconv.ParseFloat(lotFilter.MinQuantity, 64)
		if err != nil {
			return domain.InstrumentLimits{}, c.handleError(ctx, fmt.Errorf("could not parse min quantity '%s': %w", lotFilter.MinQuantity, err), op)
		}
		maxLot, err := strconv.ParseFloat(lotFilter.MaxQuantity, 64)
		if err != nil {
			return domain.InstrumentLimits{}, c.handleError(ctx, fmt.Errorf("could not parse max quantity '%s': %w", lotFilter.MaxQuantity, err), op)
		}
		lotStep, err := strconv.ParseFloat(lotFilter.StepSize, 64)
		if err != nil {
			return domain.InstrumentLimits{}, c.handleError(ctx, fmt.Errorf("could not parse step size '%s': %w", lotFilter.StepSize, err), op)
		}
		tickSize, err := strconv.ParseFloat(priceFilter.TickSize, 64)
		if err != nil {
			return domain.InstrumentLimits{}, c.handleError(ctx, fmt.Errorf("could not parse tick size '%s': %w", priceFilter.TickSize, err), op)
		}

		limits := domain.InstrumentLimits{
			TickValue: tickSize * c.contractSize,
			TickSize:  tickSize,
			Point:     tickSize,
			MinLot:    minLot,
			MaxLot:    maxLot,
			LotStep:   lotStep,
		}
		c.logger.Debug(ctx, op+" resolved", map[string]interface{}{
			"symbol": symbol, "tickSize": tickSize, "minLot": minLot, "maxLot": maxLot, "lotStep": lotStep,
		})
		return limits, nil
	}

	err = fmt.Errorf("symbol %s not found in exchange info: %w", symbol, ports.ErrSymbolUnknown)
	c.logger.Error(ctx, err, op+" failed")
	return domain.InstrumentLimits{}, err
}

func translateKline(k *futures.Kline, symbol string) (domain.Candle, error) {
	if k == nil {
		return domain.Candle{}, errors.New("received nil kline")
	}
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing open price '%s': %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing high price '%s': %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing low price '%s': %w", k.Low, err)
	}
	cls, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing close price '%s': %w", k.Close, err)
	}

	return domain.Candle{
		Time:   time.UnixMilli(k.OpenTime),
		Symbol: symbol,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  cls,
	}, nil
}
