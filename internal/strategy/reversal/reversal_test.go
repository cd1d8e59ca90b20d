package reversal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fxReversalBot/internal/domain"
)

// bar builds a candle from open and close only; highs and lows are not used
// by the detector.
func bar(open, close float64) domain.Candle {
	return domain.Candle{Open: open, High: open, Low: close, Close: close}
}

// pushSeries builds a 10-candle recent-first series: the current candle,
// candles 1..4 bearish with body 1.0, a push window (indices 5..8) holding
// the requested number of bullish candles with body 1.0, and one filler.
// Every body in indices 1..5 is exactly 1.0, so the preceding-body average
// is exactly 1.0.
func pushSeries(current domain.Candle, bullishInPush int) domain.Series {
	series := make(domain.Series, 0, 10)
	series = append(series, current)

	for i := 0; i < 4; i++ {
		series = append(series, bar(101, 100))
	}

	for i := 0; i < 4; i++ {
		if i < bullishInPush {
			series = append(series, bar(100, 101))
		} else {
			series = append(series, bar(101, 100))
		}
	}

	series = append(series, bar(100, 100))
	return series
}

func TestDetector_Detect(t *testing.T) {
	// preceding bodies average exactly 1.0, so the threshold at ratio 1.5 is
	// a current body above 1.5
	tests := []struct {
		name     string
		current  domain.Candle
		bullish  int
		expected bool
	}{
		{
			name:     "four bullish push candles and a double-size bearish candle",
			current:  bar(102, 100),
			bullish:  4,
			expected: true,
		},
		{
			name:     "three bullish candles is enough",
			current:  bar(102, 100),
			bullish:  3,
			expected: true,
		},
		{
			name:     "too few bullish candles in the push window",
			current:  bar(102, 100),
			bullish:  2,
			expected: false,
		},
		{
			name:     "current candle bullish",
			current:  bar(100, 102),
			bullish:  4,
			expected: false,
		},
		{
			name:     "current candle flat",
			current:  bar(100, 100),
			bullish:  4,
			expected: false,
		},
		{
			name:     "current body not dominant",
			current:  bar(101.25, 100),
			bullish:  4,
			expected: false,
		},
		{
			name:     "body exactly at the threshold fails the strict comparison",
			current:  bar(101.5, 100),
			bullish:  4,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(1.5)
			series := pushSeries(tt.current, tt.bullish)
			assert.Equal(t, tt.expected, d.Detect(series))
		})
	}
}

func TestDetector_Detect_ShortSeries(t *testing.T) {
	d := New(1.5)
	series := make(domain.Series, 9)
	assert.False(t, d.Detect(series))
}
