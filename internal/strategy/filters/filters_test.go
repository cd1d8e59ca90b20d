package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fxReversalBot/internal/domain"
)

func TestMACDBearish(t *testing.T) {
	tests := []struct {
		name     string
		main     []float64
		signal   []float64
		expected bool
	}{
		{
			name:     "bearish cross with falling main",
			main:     []float64{-0.0002, 0.0001, 0.0003},
			signal:   []float64{0.0000, 0.0000, 0.0001},
			expected: true,
		},
		{
			name:     "cross from exactly on the signal line",
			main:     []float64{-0.0002, 0.0000, 0.0003},
			signal:   []float64{0.0000, 0.0000, 0.0001},
			expected: true,
		},
		{
			name:     "no cross, main already below",
			main:     []float64{-0.0002, -0.0001, 0.0003},
			signal:   []float64{0.0000, 0.0000, 0.0001},
			expected: false,
		},
		{
			name:     "cross without falling momentum",
			main:     []float64{0.0002, 0.0001, 0.0003},
			signal:   []float64{0.0003, 0.0000, 0.0001},
			expected: false,
		},
		{
			name:     "main above signal",
			main:     []float64{0.0005, 0.0004, 0.0003},
			signal:   []float64{0.0000, 0.0000, 0.0001},
			expected: false,
		},
		{
			name:     "two samples fail closed",
			main:     []float64{-0.0002, 0.0001},
			signal:   []float64{0.0000, 0.0000},
			expected: false,
		},
		{
			name:     "empty series fail closed",
			main:     nil,
			signal:   nil,
			expected: false,
		},
		{
			name:     "short signal line fails closed",
			main:     []float64{-0.0002, 0.0001, 0.0003},
			signal:   []float64{0.0000, 0.0000},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MACDBearish(tt.main, tt.signal))
		})
	}
}

func TestFVGAligned(t *testing.T) {
	series := domain.Series{
		{High: 1.1050, Low: 1.1030}, // current
		{High: 1.1035, Low: 1.1010},
		{High: 1.1020, Low: 1.1000}, // two steps back
	}

	tests := []struct {
		name       string
		resistance domain.Zone
		expected   bool
	}{
		{"inside the gap", domain.Zone{Price: 1.1020, Touches: 2}, true},
		{"at the lower edge", domain.Zone{Price: 1.1000, Touches: 2}, false},
		{"at the upper edge", domain.Zone{Price: 1.1050, Touches: 2}, false},
		{"below the gap", domain.Zone{Price: 1.0990, Touches: 2}, false},
		{"above the gap", domain.Zone{Price: 1.1060, Touches: 2}, false},
		{"no resistance zone", domain.Zone{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FVGAligned(series, tt.resistance))
		})
	}
}

func TestFVGAligned_ShortSeries(t *testing.T) {
	series := domain.Series{{High: 1.1050, Low: 1.1030}}
	assert.False(t, FVGAligned(series, domain.Zone{Price: 1.1040, Touches: 1}))
}

func TestFVGAligned_InvertedGap(t *testing.T) {
	// low two steps back above the current high; the interval between them
	// still counts
	series := domain.Series{
		{High: 1.1000, Low: 1.0990},
		{High: 1.1020, Low: 1.1005},
		{High: 1.1060, Low: 1.1040},
	}
	assert.True(t, FVGAligned(series, domain.Zone{Price: 1.1020, Touches: 1}))
	assert.False(t, FVGAligned(series, domain.Zone{Price: 1.1070, Touches: 1}))
}

func TestSpreadOK(t *testing.T) {
	assert.True(t, SpreadOK(0.0002, 0.0003))
	assert.True(t, SpreadOK(0.0003, 0.0003))
	assert.True(t, SpreadOK(0, 0.0003))
	assert.False(t, SpreadOK(0.0004, 0.0003))
	assert.False(t, SpreadOK(-0.0001, 0.0003))
}
