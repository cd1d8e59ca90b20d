// Package binancebroker implements ports.Broker against the Binance futures
// API. A pending sell limit becomes a GTC limit order plus close-position
// stop-market and take-profit-market orders, which is how the exchange
// expresses protective levels. The adapter manages one net position per
// symbol; position tickets are the entry order IDs.
package binancebroker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"fxReversalBot/internal/domain"
	"fxReversalBot/internal/ports"
)

const (
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Client implements the ports.Broker interface using the go-binance library.
// The adapter trades exactly one symbol; every position and order lookup is
// scoped to it so positions on other symbols are never touched.
type Client struct {
	futuresClient *futures.Client
	symbol        string
	logger        ports.Logger
}

// Config holds configuration specific to the Binance execution adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	Symbol     string // the single traded symbol
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance execution adapter. Keys are mandatory: every
// endpoint this adapter touches is private.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance broker")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required for Binance broker")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("API key and secret are required for Binance broker: %w", ports.ErrAuthenticationFailed)
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance broker configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance broker configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	return &Client{futuresClient: client, symbol: cfg.Symbol, logger: cfg.Logger}, nil
}

// rejectionRetCode maps a Binance API rejection to a broker return code, or
// reports that the error is a transport failure.
func rejectionRetCode(err error) (domain.RetCode, bool) {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	switch apiErr.Code {
	case -2019, -3005: // margin or balance insufficient
		return domain.RetCodeNoMoney, true
	case -4003: // quantity out of range
		return domain.RetCodeInvalidVolume, true
	case -4014: // price out of range
		return domain.RetCodeInvalidPrice, true
	case -2010, -2022: // order rejected
		return domain.RetCodeReject, true
	case -4015: // invalid leverage still counts as a server-side refusal
		return domain.RetCodeReject, true
	}
	return 0, false
}

// handleError translates transport-level failures into standardized errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var finalErr error
	var apiErr *common.APIError
	switch {
	case errors.As(err, &apiErr):
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message
		switch apiErr.Code {
		case -1003:
			finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrRateLimited, err)
		case -1022, -2014, -2015:
			finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrAuthenticationFailed, err)
		default:
			finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrGatewayUnavailable, err)
		}
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case strings.Contains(err.Error(), "use of closed network connection"),
		strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrGatewayUnavailable, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// SubmitPendingOrder places the entry limit order and its protective
// close-position orders. A server-side rejection of the entry order comes
// back as a return code with a nil error.
func (c *Client) SubmitPendingOrder(ctx context.Context, spec ports.OrderSpec) (ports.OrderResult, error) {
	op := "SubmitPendingOrder"

	if spec.Type != domain.OrderTypeSellLimit && spec.Type != domain.OrderTypeBuyLimit {
		return ports.OrderResult{RetCode: domain.RetCodeReject}, nil
	}

	side := futures.SideTypeSell
	closeSide := futures.SideTypeBuy
	if spec.Side == domain.Buy {
		side = futures.SideTypeBuy
		closeSide = futures.SideTypeSell
	}

	order, err := c.futuresClient.NewCreateOrderService().
		Symbol(spec.Symbol).
		Side(side).
		Type(futures.OrderTypeLimit).
		TimeInForce(futures.TimeInForceTypeGTC).
		Quantity(spec.Lots.String()).
		Price(formatPrice(spec.Price)).
		NewClientOrderID(clientOrderID(spec.Magic, spec.ClientID)).
		Do(ctx)
	if err != nil {
		if retCode, rejected := rejectionRetCode(err); rejected {
			c.logger.Warn(ctx, op+": Entry order rejected by exchange", map[string]interface{}{
				"symbol": spec.Symbol, "price": spec.Price, "lots": spec.Lots, "retCode": int(retCode),
			})
			return ports.OrderResult{RetCode: retCode}, nil
		}
		return ports.OrderResult{}, c.handleError(ctx, err, op)
	}

	// Protective orders close the whole position when touched. Failures here
	// are transport errors: the entry is already live and must be reported.
	if spec.StopLoss > 0 {
		if err := c.placeProtective(ctx, spec.Symbol, closeSide, futures.OrderTypeStopMarket, spec.StopLoss); err != nil {
			c.logger.Error(ctx, err, op+": Failed to place stop-loss order", map[string]interface{}{
				"symbol": spec.Symbol, "stopLoss": spec.StopLoss, "entryOrderID": order.OrderID,
			})
		}
	}
	if spec.TakeProfit > 0 {
		if err := c.placeProtective(ctx, spec.Symbol, closeSide, futures.OrderTypeTakeProfitMarket, spec.TakeProfit); err != nil {
			c.logger.Error(ctx, err, op+": Failed to place take-profit order", map[string]interface{}{
				"symbol": spec.Symbol, "takeProfit": spec.TakeProfit, "entryOrderID": order.OrderID,
			})
		}
	}

	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": spec.Symbol, "orderID": order.OrderID, "price": spec.Price, "lots": spec.Lots,
	})
	return ports.OrderResult{Ticket: order.OrderID, RetCode: domain.RetCodeDone}, nil
}

func (c *Client) placeProtective(ctx context.Context, symbol string, side futures.SideType, orderType futures.OrderType, price float64) error {
	_, err := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(orderType).
		StopPrice(formatPrice(price)).
		ClosePosition(true).
		Do(ctx)
	return err
}

// ModifyPosition replaces the protective orders with new levels. The ticket
// identifies the position only nominally: the exchange nets positions per
// symbol, so the protective orders are keyed by the traded symbol. A missing
// net position on that symbol is reported as a rejection, never as a
// modification of some other symbol's position.
func (c *Client) ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit float64) (ports.OrderResult, error) {
	op := "ModifyPosition"

	positions, err := c.futuresClient.NewGetPositionRiskService().Symbol(c.symbol).Do(ctx)
	if err != nil {
		return ports.OrderResult{}, c.handleError(ctx, err, op)
	}

	var target *futures.PositionRisk
	for _, p := range positions {
		amt, _ := strconv.ParseFloat(p.PositionAmt, 64)
		if p.Symbol == c.symbol && amt != 0 {
			target = p
			break
		}
	}
	if target == nil {
		c.logger.Warn(ctx, op+": No open position for symbol", map[string]interface{}{
			"symbol": c.symbol, "ticket": ticket,
		})
		return ports.OrderResult{Ticket: ticket, RetCode: domain.RetCodeReject}, nil
	}

	amt, _ := strconv.ParseFloat(target.PositionAmt, 64)
	closeSide := futures.SideTypeBuy
	if amt > 0 {
		closeSide = futures.SideTypeSell
	}

	// Cancel the existing protective orders before re-placing them.
	openOrders, err := c.futuresClient.NewListOpenOrdersService().Symbol(c.symbol).Do(ctx)
	if err != nil {
		return ports.OrderResult{}, c.handleError(ctx, err, op)
	}
	for _, o := range openOrders {
		if o.Type != futures.OrderTypeStopMarket && o.Type != futures.OrderTypeTakeProfitMarket {
			continue
		}
		if _, err := c.futuresClient.NewCancelOrderService().Symbol(c.symbol).OrderID(o.OrderID).Do(ctx); err != nil {
			return ports.OrderResult{}, c.handleError(ctx, err, op)
		}
	}

	if stopLoss > 0 {
		if err := c.placeProtective(ctx, c.symbol, closeSide, futures.OrderTypeStopMarket, stopLoss); err != nil {
			if retCode, rejected := rejectionRetCode(err); rejected {
				return ports.OrderResult{Ticket: ticket, RetCode: retCode}, nil
			}
			return ports.OrderResult{}, c.handleError(ctx, err, op)
		}
	}
	if takeProfit > 0 {
		if err := c.placeProtective(ctx, c.symbol, closeSide, futures.OrderTypeTakeProfitMarket, takeProfit); err != nil {
			if retCode, rejected := rejectionRetCode(err); rejected {
				return ports.OrderResult{Ticket: ticket, RetCode: retCode}, nil
			}
			return ports.OrderResult{}, c.handleError(ctx, err, op)
		}
	}

	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": c.symbol, "stopLoss": stopLoss, "takeProfit": takeProfit,
	})
	return ports.OrderResult{Ticket: ticket, RetCode: domain.RetCodeDone}, nil
}

// OpenPositions lists the net position for the symbol, if any. The magic
// filter is applied through the entry order's client ID prefix where
// available; a netted exchange position carries no per-order tag, so a
// non-zero position is attributed to the caller.
func (c *Client) OpenPositions(ctx context.Context, symbol string, magic int64) ([]*domain.Position, error) {
	op := "OpenPositions"

	positions, err := c.futuresClient.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	out := make([]*domain.Position, 0, 1)
	for _, p := range positions {
		amt, parseErr := strconv.ParseFloat(p.PositionAmt, 64)
		if parseErr != nil || amt == 0 {
			continue
		}
		entryPrice, parseErr := strconv.ParseFloat(p.EntryPrice, 64)
		if parseErr != nil {
			return nil, c.handleError(ctx, fmt.Errorf("could not parse entry price '%s': %w", p.EntryPrice, parseErr), op)
		}

		stopLoss, takeProfit, ticket, err := c.protectiveLevels(ctx, symbol)
		if err != nil {
			return nil, err
		}

		lots := decimal.NewFromFloat(amt)
		if amt < 0 {
			lots = lots.Neg()
		}
		out = append(out, &domain.Position{
			Ticket:     ticket,
			Symbol:     symbol,
			Magic:      magic,
			OpenPrice:  entryPrice,
			StopLoss:   stopLoss,
			TakeProfit: takeProfit,
			Lots:       lots,
			IsShort:    amt < 0,
			OpenedAt:   time.Now().UTC(),
		})
	}
	return out, nil
}

// protectiveLevels reads the current stop and target from the open
// close-position orders. The stop order's ID doubles as the position ticket.
func (c *Client) protectiveLevels(ctx context.Context, symbol string) (stopLoss, takeProfit float64, ticket int64, err error) {
	op := "protectiveLevels"
	openOrders, err := c.futuresClient.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, 0, 0, c.handleError(ctx, err, op)
	}

	for _, o := range openOrders {
		price, parseErr := strconv.ParseFloat(o.StopPrice, 64)
		if parseErr != nil {
			continue
		}
		switch o.Type {
		case futures.OrderTypeStopMarket:
			stopLoss = price
			ticket = o.OrderID
		case futures.OrderTypeTakeProfitMarket:
			takeProfit = price
			if ticket == 0 {
				ticket = o.OrderID
			}
		}
	}
	return stopLoss, takeProfit, ticket, nil
}

// Balance retrieves the account wallet balance.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	op := "Balance"
	account, err := c.futuresClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, c.handleError(ctx, err, op)
	}
	balance, err := decimal.NewFromString(account.TotalWalletBalance)
	if err != nil {
		return decimal.Zero, c.handleError(ctx, fmt.Errorf("could not parse wallet balance '%s': %w", account.TotalWalletBalance, err), op)
	}
	return balance, nil
}

// Equity retrieves the account margin balance (wallet plus unrealized P/L).
func (c *Client) Equity(ctx context.Context) (decimal.Decimal, error) {
	op := "Equity"
	account, err := c.futuresClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, c.handleError(ctx, err, op)
	}
	equity, err := decimal.NewFromString(account.TotalMarginBalance)
	if err != nil {
		return decimal.Zero, c.handleError(ctx, fmt.Errorf("could not parse margin balance '%s': %w", account.TotalMarginBalance, err), op)
	}
	return equity, nil
}

func clientOrderID(magic int64, id string) string {
	// Exchange client order IDs are capped at 36 characters.
	s := fmt.Sprintf("fxr-%d-%s", magic, id)
	if len(s) > 36 {
		s = s[:36]
	}
	return s
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
