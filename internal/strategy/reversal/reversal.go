// Package reversal classifies whether a bullish push was followed by a
// significant bearish reversal candle.
package reversal

import "fxReversalBot/internal/domain"

const (
	// window is the number of candles the detector inspects.
	window = 10
	// pushStart..pushEnd is the bullish push window, in candles before now.
	pushStart = 5
	pushEnd   = 8
	// minBullish is the minimum number of bullish candles in the push window.
	minBullish = 3
	// avgBodySpan is the number of preceding candles averaged for the body
	// size comparison.
	avgBodySpan = 5
)

// Detector checks for a momentum reversal pattern. BodyRatio is the factor
// by which the current bearish body must exceed the average preceding body;
// the design default is 1.5.
type Detector struct {
	bodyRatio float64
}

// New creates a detector with the given body ratio.
func New(bodyRatio float64) *Detector {
	return &Detector{bodyRatio: bodyRatio}
}

// MinCandles returns the series length the detector requires.
func (d *Detector) MinCandles() int {
	return window
}

// Detect reports whether the recent-first series shows a bullish push
// followed by a dominant bearish candle: at least three bullish candles
// among indices 5..8, and the current candle bearish with a body larger
// than bodyRatio times the average body of the five candles before it.
func (d *Detector) Detect(series domain.Series) bool {
	if len(series) < window {
		return false
	}

	bullish := 0
	for i := pushStart; i <= pushEnd; i++ {
		if series[i].IsBullish() {
			bullish++
		}
	}
	if bullish < minBullish {
		return false
	}

	current := series[0]
	if !current.IsBearish() {
		return false
	}

	var total float64
	for i := 1; i <= avgBodySpan; i++ {
		total += series[i].Body()
	}
	avgBody := total / float64(avgBodySpan)

	return current.Body() > d.bodyRatio*avgBody
}
