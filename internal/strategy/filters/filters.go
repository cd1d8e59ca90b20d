// Package filters holds the independent confirmation checks applied on top
// of the zone and reversal analysis: MACD cross/momentum, fair-value-gap
// alignment and spread acceptability. Every filter fails closed.
package filters

import "fxReversalBot/internal/domain"

// macdSamples is the number of MACD values each line must supply.
const macdSamples = 3

// MACDBearish requires a bearish cross (main below signal now, at or above
// one step prior) together with falling main-line momentum. Both series are
// recent-first. Fewer than three values on either line returns false.
func MACDBearish(main, signal []float64) bool {
	if len(main) < macdSamples || len(signal) < macdSamples {
		return false
	}

	crossedDown := main[0] < signal[0] && main[1] >= signal[1]
	falling := main[0] < main[1]
	return crossedDown && falling
}

// FVGAligned reports whether the resistance level lies strictly inside the
// fair value gap spanned by the low of the candle two steps back and the
// high of the most recent candle. A gap that straddles the resistance level
// signals imbalance resolving into supply.
func FVGAligned(series domain.Series, resistance domain.Zone) bool {
	if len(series) < 3 || resistance.IsZero() {
		return false
	}

	lower, upper := series[2].Low, series[0].High
	if lower > upper {
		lower, upper = upper, lower
	}
	return resistance.Price > lower && resistance.Price < upper
}

// SpreadOK reports whether the current spread is within the ceiling. This
// bounds execution slippage cost independently of the signal. A negative
// spread means a crossed or broken quote, which fails the check even though
// it is below the ceiling: quoting anomalies are not a trading opportunity.
func SpreadOK(spread, maxSpread float64) bool {
	return spread >= 0 && spread <= maxSpread
}
