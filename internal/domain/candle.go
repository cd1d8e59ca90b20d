package domain

import "time"

// Candle represents a single OHLC bar.
type Candle struct {
	Time   time.Time // Start time of the interval
	Symbol string    // Trading symbol
	Open   float64   // Opening price
	High   float64   // Highest price
	Low    float64   // Lowest price
	Close  float64   // Closing price
}

// Body returns the absolute size of the candle body.
func (c Candle) Body() float64 {
	body := c.Close - c.Open
	if body < 0 {
		return -body
	}
	return body
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Series is a sequence of candles ordered most-recent-first: index 0 is the
// newest bar, increasing index means older data.
type Series []Candle

// Lows returns the low prices in series order.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// Highs returns the high prices in series order.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Closes returns the close prices in series order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// SeriesFromChronological builds a recent-first Series from candles ordered
// oldest-first, which is how gateways typically deliver history.
func SeriesFromChronological(candles []Candle) Series {
	out := make(Series, len(candles))
	for i, c := range candles {
		out[len(candles)-1-i] = c
	}
	return out
}
