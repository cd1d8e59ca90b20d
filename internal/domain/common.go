package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// OrderType represents the execution type of an order.
type OrderType string

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeSellLimit OrderType = "SELL_LIMIT"
	OrderTypeBuyLimit  OrderType = "BUY_LIMIT"
)

// RetCode is a broker return code for an order or modification request.
type RetCode int

// Broker return codes, following the MetaTrader numbering the strategy was
// designed against.
const (
	RetCodeDone          RetCode = 10009
	RetCodeInvalidVolume RetCode = 10014
	RetCodeInvalidPrice  RetCode = 10015
	RetCodeInvalidStops  RetCode = 10016
	RetCodeTradeDisabled RetCode = 10017
	RetCodeMarketClosed  RetCode = 10018
	RetCodeNoMoney       RetCode = 10019
	RetCodePriceChanged  RetCode = 10020
	RetCodeReject        RetCode = 10006
	RetCodeInvalidFill   RetCode = 10030
)

// IsDone reports whether the return code signals an accepted request.
func (c RetCode) IsDone() bool {
	return c == RetCodeDone
}

var retCodeReasons = map[RetCode]string{
	RetCodeDone:          "done",
	RetCodeInvalidVolume: "invalid volume",
	RetCodeInvalidPrice:  "invalid price",
	RetCodeInvalidStops:  "invalid stop loss or take profit",
	RetCodeTradeDisabled: "trading is disabled",
	RetCodeMarketClosed:  "market is closed",
	RetCodeNoMoney:       "insufficient funds",
	RetCodePriceChanged:  "price changed",
	RetCodeReject:        "request rejected",
	RetCodeInvalidFill:   "invalid order filling type",
}

// Reason returns a human-readable explanation for the return code.
func (c RetCode) Reason() string {
	if r, ok := retCodeReasons[c]; ok {
		return r
	}
	return "unknown return code"
}
